// Package shared holds code used across stockstats packages that belongs to
// no single layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on structured logs
//   - Provider fixtures: WIKI column headers, catalog CSV, dataset JSON
//     bodies and daily rows
//   - WriteFile and WriteZip for building download fixtures on disk
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    body := testutil.DatasetJSON(t, testutil.WikiColumns, [][]interface{}{
//	        testutil.WikiRow("2017-01-03", 10, 15, 9, 12, 1000),
//	    })
//	    ...
//	    assert.True(t, logs.ContainsMessage("Time series retrieved"))
//	}
//
// testutil must only be imported from _test.go files.
package shared
