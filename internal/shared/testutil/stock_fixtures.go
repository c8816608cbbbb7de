package testutil

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ZipEntry is one file placed into a fixture archive
type ZipEntry struct {
	Name    string
	Content string
}

// WikiColumns is the column header of the WIKI daily price dataset
var WikiColumns = []string{
	"Date", "Open", "High", "Low", "Close", "Volume", "Ex-Dividend", "Split Ratio",
	"Adj. Open", "Adj. High", "Adj. Low", "Adj. Close", "Adj. Volume",
}

// SampleCatalogCSV is a small provider symbol catalog
const SampleCatalogCSV = "WIKI/AAPL,Apple Inc (AAPL) Prices\r\n" +
	"WIKI/GOOGL,\"Alphabet Inc, Class A (GOOGL) Prices\"\r\n" +
	"WIKI/MSFT,Microsoft Corporation (MSFT) Prices\r\n"

// WriteFile writes content to name inside a test temp dir and returns its path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteZip builds an archive containing entries in order and returns its path
func WriteZip(t *testing.T, entries ...ZipEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "payload.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.Content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

// DatasetJSON renders a provider data.json body wrapped in dataset_data
func DatasetJSON(t *testing.T, columns []string, rows [][]interface{}) []byte {
	t.Helper()

	body := map[string]interface{}{
		"dataset_data": map[string]interface{}{
			"column_names": columns,
			"data":         rows,
		},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

// WikiRow builds a WIKI data row where the adjusted fields mirror the raw ones
func WikiRow(date string, open, high, low, close, volume float64) []interface{} {
	return []interface{}{date, open, high, low, close, volume, 0.0, 1.0, open, high, low, close, volume}
}

// WikiRowAdjusted builds a WIKI data row with distinct adjusted values
func WikiRowAdjusted(date string, raw, adjusted [5]float64) []interface{} {
	return []interface{}{
		date, raw[0], raw[1], raw[2], raw[3], raw[4], 0.0, 1.0,
		adjusted[0], adjusted[1], adjusted[2], adjusted[3], adjusted[4],
	}
}
