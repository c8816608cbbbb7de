package dataprocessing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stockerrors "stockstats/internal/errors"
	"stockstats/internal/shared/testutil"
	"stockstats/pkg/contracts/domain"
)

func januaryRange() domain.DateRange {
	return domain.MonthRange(domain.MonthKey{Year: 2017, Month: time.January}, domain.MonthKey{Year: 2017, Month: time.January})
}

func TestParseDatasetJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCols int
		wantRows int
	}{
		{
			name:     "wrapped",
			body:     `{"dataset_data":{"column_names":["Date","Open"],"data":[["2017-01-03",800.6]]}}`,
			wantCols: 2,
			wantRows: 1,
		},
		{
			name:     "bare",
			body:     `{"column_names":["Date","Open"],"data":[["2017-01-03",800.6],["2017-01-02",799]]}`,
			wantCols: 2,
			wantRows: 2,
		},
		{
			name:     "no rows",
			body:     `{"dataset_data":{"column_names":["Date"],"data":[]}}`,
			wantCols: 1,
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseDatasetJSON([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, data.ColumnNames, tt.wantCols)
			assert.Len(t, data.Data, tt.wantRows)
		})
	}
}

func TestParseDatasetJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>quota exceeded</html>`},
		{"missing columns", `{"dataset_data":{"data":[]}}`},
		{"missing data", `{"dataset_data":{"column_names":["Date"]}}`},
		{"empty object", `{}`},
		{"wrong shape", `{"dataset_data":{"column_names":"Date","data":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDatasetJSON([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, stockerrors.IsType(err, stockerrors.ErrTypeParsing))
			assert.Contains(t, err.Error(), stockerrors.MsgDataEncoding)
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	body := testutil.DatasetJSON(t, testutil.WikiColumns, [][]interface{}{
		testutil.WikiRow("2017-01-04", 10, 12, 9, 11, 1000),
		testutil.WikiRowAdjusted("2017-01-03", [5]float64{20, 22, 19, 21, 2000}, [5]float64{10, 11, 9.5, 10.5, 4000}),
	})
	data, err := ParseDatasetJSON(body)
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	n := NewNormalizer(domain.WikiFieldSet(), logger)

	ts, err := n.Normalize("GOOGL", januaryRange(), data.ColumnNames, data.Data)
	require.NoError(t, err)

	assert.Equal(t, "GOOGL", ts.Symbol)
	assert.Equal(t, januaryRange(), ts.Range)
	require.Equal(t, 2, ts.Len())
	assert.True(t, ts.IsReverseChronological())

	first := ts.Records[0]
	assert.Equal(t, domain.NewDate(2017, time.January, 4), first.Date)
	assert.Equal(t, 10.0, first.Value(domain.FieldOpen))
	assert.Equal(t, 12.0, first.Value(domain.FieldHigh))
	assert.Equal(t, 1000.0, first.Value(domain.FieldVolume))
	assert.Equal(t, 1.0, first.Value(domain.FieldSplitRatio))

	second := ts.Records[1]
	assert.Equal(t, 20.0, second.Value(domain.FieldOpen))
	assert.Equal(t, 10.0, second.Value(domain.FieldAdjustedOpen))
	assert.Equal(t, 4000.0, second.Value(domain.FieldAdjustedVolume))
}

func TestNormalizer_KeepsProviderOrder(t *testing.T) {
	columns := []string{"Date", "Close"}
	rows := [][]json.RawMessage{
		{json.RawMessage(`"2017-01-02"`), json.RawMessage(`1`)},
		{json.RawMessage(`"2017-01-05"`), json.RawMessage(`2`)},
		{json.RawMessage(`"2017-01-03"`), json.RawMessage(`3`)},
	}

	logger, handler := testutil.NewTestLogger(t)
	ts, err := NewNormalizer(domain.WikiFieldSet(), logger).Normalize("X", januaryRange(), columns, rows)
	require.NoError(t, err)

	var dates []string
	for _, r := range ts.Records {
		dates = append(dates, r.Date.String())
	}
	assert.Equal(t, []string{"2017-01-02", "2017-01-05", "2017-01-03"}, dates)
	assert.False(t, ts.IsReverseChronological())
	assert.True(t, handler.ContainsMessage("Provider rows are not in reverse chronological order"))
}

func TestNormalizer_NullsAndShortRows(t *testing.T) {
	columns := []string{"Date", "Open", "Close", "Volume", "Unknown"}
	rows := [][]json.RawMessage{
		{json.RawMessage(`"2017-01-04"`), json.RawMessage(`null`), json.RawMessage(`"5.5"`)},
	}

	ts, err := NewNormalizer(domain.WikiFieldSet(), nil).Normalize("X", januaryRange(), columns, rows)
	require.NoError(t, err)
	require.Equal(t, 1, ts.Len())

	rec := ts.Records[0]
	assert.False(t, rec.Has(domain.FieldOpen))
	assert.Equal(t, 0.0, rec.Value(domain.FieldOpen))
	assert.Equal(t, 5.5, rec.Value(domain.FieldClose))
	assert.False(t, rec.Has(domain.FieldVolume))
}

func TestNormalizer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		row     []json.RawMessage
	}{
		{
			name:    "no date column",
			columns: []string{"Open"},
			row:     []json.RawMessage{json.RawMessage(`1`)},
		},
		{
			name:    "malformed date",
			columns: []string{"Date", "Open"},
			row:     []json.RawMessage{json.RawMessage(`"2017/01/04"`), json.RawMessage(`1`)},
		},
		{
			name:    "date not a string",
			columns: []string{"Date", "Open"},
			row:     []json.RawMessage{json.RawMessage(`20170104`), json.RawMessage(`1`)},
		},
		{
			name:    "missing date value",
			columns: []string{"Open", "Date"},
			row:     []json.RawMessage{json.RawMessage(`1`)},
		},
		{
			name:    "non numeric value",
			columns: []string{"Date", "Open"},
			row:     []json.RawMessage{json.RawMessage(`"2017-01-04"`), json.RawMessage(`"n/a"`)},
		},
		{
			name:    "boolean value",
			columns: []string{"Date", "Open"},
			row:     []json.RawMessage{json.RawMessage(`"2017-01-04"`), json.RawMessage(`true`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNormalizer(domain.WikiFieldSet(), nil).
				Normalize("X", januaryRange(), tt.columns, [][]json.RawMessage{tt.row})
			require.Error(t, err)

			var se *stockerrors.StockError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, stockerrors.ErrTypeParsing, se.Type)
			assert.Equal(t, stockerrors.MsgDataEncoding, se.Message)
			assert.Equal(t, "X", se.Context["symbol"])
		})
	}
}
