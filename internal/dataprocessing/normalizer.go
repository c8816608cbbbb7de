package dataprocessing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	stockerrors "stockstats/internal/errors"
	"stockstats/pkg/contracts/domain"
)

var jsonNull = []byte("null")

// DatasetData is the column-oriented body of a provider data.json response
type DatasetData struct {
	ColumnNames []string            `json:"column_names"`
	Data        [][]json.RawMessage `json:"data"`
}

// datasetEnvelope accepts both {"dataset_data": {...}} and the bare inner object
type datasetEnvelope struct {
	DatasetData *DatasetData        `json:"dataset_data"`
	ColumnNames []string            `json:"column_names"`
	Data        [][]json.RawMessage `json:"data"`
}

// ParseDatasetJSON extracts column names and data rows from a provider body
func ParseDatasetJSON(body []byte) (*DatasetData, error) {
	var env datasetEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, stockerrors.NewParsingError(stockerrors.MsgDataEncoding, err)
	}

	data := env.DatasetData
	if data == nil {
		data = &DatasetData{ColumnNames: env.ColumnNames, Data: env.Data}
	}
	if data.ColumnNames == nil {
		return nil, stockerrors.NewParsingError(stockerrors.MsgDataEncoding,
			fmt.Errorf("missing column_names"))
	}
	if data.Data == nil {
		return nil, stockerrors.NewParsingError(stockerrors.MsgDataEncoding,
			fmt.Errorf("missing data"))
	}
	return data, nil
}

// Normalizer converts provider rows into typed daily records
type Normalizer struct {
	fields domain.FieldSet
	logger *slog.Logger
}

// NewNormalizer creates a normalizer for the given column layout
func NewNormalizer(fields domain.FieldSet, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{fields: fields, logger: logger}
}

// Normalize maps each row positionally onto columnNames and builds the
// series. Rows keep provider order. Unknown columns are ignored; a null or
// missing value leaves the field absent.
func (n *Normalizer) Normalize(symbol string, rng domain.DateRange, columnNames []string, rows [][]json.RawMessage) (domain.TimeSeries, error) {
	dateIdx := -1
	fieldIdx := make(map[int]domain.Field, len(columnNames))
	for i, name := range columnNames {
		if name == n.fields.DateColumn {
			dateIdx = i
			continue
		}
		if f, ok := n.fields.FieldFor(name); ok {
			fieldIdx[i] = f
		}
	}
	if dateIdx < 0 {
		return domain.TimeSeries{}, stockerrors.NewParsingError(stockerrors.MsgDataEncoding,
			fmt.Errorf("column %q not found", n.fields.DateColumn)).WithContext("symbol", symbol)
	}

	records := make([]domain.DailyRecord, 0, len(rows))
	for r, row := range rows {
		if dateIdx >= len(row) {
			return domain.TimeSeries{}, stockerrors.NewParsingError(stockerrors.MsgDataEncoding,
				fmt.Errorf("row %d: missing date", r)).WithContext("symbol", symbol)
		}

		date, err := parseDateValue(row[dateIdx])
		if err != nil {
			return domain.TimeSeries{}, stockerrors.NewParsingError(stockerrors.MsgDataEncoding,
				fmt.Errorf("row %d: %w", r, err)).WithContext("symbol", symbol)
		}

		record := domain.NewDailyRecord(date)
		for i, f := range fieldIdx {
			if i >= len(row) || bytes.Equal(bytes.TrimSpace(row[i]), jsonNull) {
				continue
			}
			v, err := parseNumberValue(row[i])
			if err != nil {
				return domain.TimeSeries{}, stockerrors.NewParsingError(stockerrors.MsgDataEncoding,
					fmt.Errorf("row %d, column %q: %w", r, columnNames[i], err)).WithContext("symbol", symbol)
			}
			record.Values[f] = v
		}
		records = append(records, record)
	}

	ts := domain.TimeSeries{Symbol: symbol, Range: rng, Records: records}
	if !ts.IsReverseChronological() {
		n.logger.Debug("Provider rows are not in reverse chronological order",
			slog.String("symbol", symbol),
			slog.Int("records", ts.Len()))
	}
	return ts, nil
}

func parseDateValue(raw json.RawMessage) (domain.Date, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Date{}, fmt.Errorf("date %s is not a string", string(raw))
	}
	return domain.ParseDate(s)
}

// parseNumberValue accepts a JSON number or a string holding one
func parseNumberValue(raw json.RawMessage) (float64, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, fmt.Errorf("value %s is not numeric", string(raw))
	}
	return num.Float64()
}
