package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockstats/internal/shared/testutil"
	"stockstats/pkg/contracts/domain"
)

func sampleCatalog() *domain.SymbolCatalog {
	c := domain.NewSymbolCatalog()
	c.Add("MSFT", "Microsoft Corporation (MSFT) Prices")
	c.Add("AAPL", "Apple Inc (AAPL) Prices")
	return c
}

func sampleAverages() *domain.SymbolResults[domain.MonthlyAverages] {
	res := domain.NewSymbolResults[domain.MonthlyAverages]()
	res.Set("GOOGL", domain.MonthlyAverages{
		{Year: 2017, Month: time.February}: {AverageOpen: 829.5, AverageClose: 830.25},
		{Year: 2017, Month: time.January}:  {AverageOpen: 812.34, AverageClose: 813.7},
	})
	return res
}

func newTestExporter(t *testing.T) *Exporter {
	logger, _ := testutil.NewTestLogger(t)
	return New(logger)
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		pretty bool
		want   string
	}{
		{
			name:  "compact catalog keeps provider order",
			value: sampleCatalog(),
			want:  `{"MSFT":"Microsoft Corporation (MSFT) Prices","AAPL":"Apple Inc (AAPL) Prices"}` + "\n",
		},
		{
			name:   "pretty catalog sorts keys",
			value:  sampleCatalog(),
			pretty: true,
			want: "{\n" +
				"    \"AAPL\": \"Apple Inc (AAPL) Prices\",\n" +
				"    \"MSFT\": \"Microsoft Corporation (MSFT) Prices\"\n" +
				"}\n",
		},
		{
			name:  "month keys and field names",
			value: sampleAverages(),
			want: `{"GOOGL":{"2017-01":{"average_open":812.34,"average_close":813.7},` +
				`"2017-02":{"average_open":829.5,"average_close":830.25}}}` + "\n",
		},
		{
			name:   "pretty keeps number text",
			value:  domain.VarianceDay{Date: domain.NewDate(2017, time.June, 9), Variance: 1632363.696},
			pretty: true,
			want: "{\n" +
				"    \"date\": \"2017-06-09\",\n" +
				"    \"variance\": 1632363.696\n" +
				"}\n",
		},
		{
			name:  "biggest loser",
			value: domain.BiggestLoser{Symbols: []string{"BBB", "CCC"}, Days: 5},
			want:  `{"symbols":["BBB","CCC"],"days":5}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteJSON(&buf, tt.value, tt.pretty))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestResultTables(t *testing.T) {
	busy := domain.NewSymbolResults[domain.BusyDays]()
	busy.Set("GOOGL", domain.BusyDays{
		AverageVolume: 1000,
		Days: map[domain.Date]float64{
			domain.NewDate(2017, time.June, 9):  1500,
			domain.NewDate(2017, time.January, 3): 1200,
		},
	})
	busy.Set("MSFT", domain.BusyDays{AverageVolume: 200, Days: map[domain.Date]float64{}})

	variance := domain.NewSymbolResults[domain.VarianceDay]()
	variance.Set("GOOGL", domain.VarianceDay{Date: domain.NewDate(2017, time.June, 9), Variance: 52.13})

	tests := []struct {
		name    string
		result  Result
		headers []string
		rows    [][]interface{}
	}{
		{
			name:    "catalog",
			result:  CatalogResult(sampleCatalog()),
			headers: []string{"symbol", "description"},
			rows: [][]interface{}{
				{"MSFT", "Microsoft Corporation (MSFT) Prices"},
				{"AAPL", "Apple Inc (AAPL) Prices"},
			},
		},
		{
			name:    "month averages ascending",
			result:  MonthAveragesResult(sampleAverages()),
			headers: []string{"symbol", "month", "average_open", "average_close"},
			rows: [][]interface{}{
				{"GOOGL", "2017-01", 812.34, 813.7},
				{"GOOGL", "2017-02", 829.5, 830.25},
			},
		},
		{
			name:    "variance",
			result:  VarianceResult(variance),
			headers: []string{"symbol", "date", "variance"},
			rows:    [][]interface{}{{"GOOGL", "2017-06-09", 52.13}},
		},
		{
			name:    "busy days with and without hits",
			result:  BusyDaysResult(busy),
			headers: []string{"symbol", "average_volume", "date", "volume"},
			rows: [][]interface{}{
				{"GOOGL", 1000.0, "2017-01-03", 1200.0},
				{"GOOGL", 1000.0, "2017-06-09", 1500.0},
				{"MSFT", 200.0, nil, nil},
			},
		},
		{
			name:    "biggest loser ties",
			result:  BiggestLoserResult(domain.BiggestLoser{Symbols: []string{"BBB", "CCC"}, Days: 5}),
			headers: []string{"symbol", "days"},
			rows:    [][]interface{}{{"BBB", 5}, {"CCC", 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.headers, tt.result.Table.Headers)
			assert.Equal(t, tt.rows, tt.result.Table.Rows)
		})
	}
}

func TestExporter_CSV(t *testing.T) {
	e := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, MonthAveragesResult(sampleAverages()), Options{Format: FormatCSV}))
	assert.Equal(t,
		"symbol,month,average_open,average_close\n"+
			"GOOGL,2017-01,812.34,813.7\n"+
			"GOOGL,2017-02,829.5,830.25\n",
		buf.String())

	buf.Reset()
	require.NoError(t, e.Export(&buf, CatalogResult(sampleCatalog()), Options{Format: FormatCSV, BOM: true}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Contains(t, buf.String(), "MSFT,Microsoft Corporation (MSFT) Prices\n")
}

func TestExporter_ToFile(t *testing.T) {
	e := newTestExporter(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out", "symbols.json")
	require.NoError(t, e.Export(nil, CatalogResult(sampleCatalog()), Options{Format: FormatJSON, Path: jsonPath}))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"AAPL":"Apple Inc (AAPL) Prices","MSFT":"Microsoft Corporation (MSFT) Prices"}`, string(data))

	csvPath := filepath.Join(dir, "loser.csv")
	require.NoError(t, e.Export(nil, BiggestLoserResult(domain.BiggestLoser{Symbols: []string{"AAA"}, Days: 3}), Options{Format: FormatCSV, Path: csvPath}))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "symbol,days\nAAA,3\n", string(data))
}

func TestExporter_XLSX(t *testing.T) {
	e := newTestExporter(t)
	path := filepath.Join(t.TempDir(), "averages.xlsx")

	require.NoError(t, e.Export(nil, MonthAveragesResult(sampleAverages()), Options{Format: FormatXLSX, Path: path}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"month-averages"}, f.GetSheetList())
	rows, err := f.GetRows("month-averages")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"symbol", "month", "average_open", "average_close"}, rows[0])
	assert.Equal(t, []string{"GOOGL", "2017-01"}, rows[1][:2])
	assert.Equal(t, "2017-02", rows[2][1])
}

func TestExporter_XLSXRequiresPath(t *testing.T) {
	e := newTestExporter(t)
	err := e.Export(&bytes.Buffer{}, CatalogResult(sampleCatalog()), Options{Format: FormatXLSX})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an output file")
}

func TestXLSXWriter_MultipleSheets(t *testing.T) {
	w := NewXLSXWriter(nil)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, w.WriteWorkbook(path,
		CatalogResult(sampleCatalog()).Table,
		BiggestLoserResult(domain.BiggestLoser{Symbols: []string{"AAA"}, Days: 3}).Table,
	))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"symbols", "biggest-loser"}, f.GetSheetList())

	require.Error(t, w.WriteWorkbook(path))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "1632363.696", formatCell(1632363.696))
	assert.Equal(t, "2287662", formatCell(2287662.0))
	assert.Equal(t, "52", formatCell(52))
	assert.Equal(t, "2017-06", formatCell(domain.MonthKey{Year: 2017, Month: time.June}))
}
