package domain

// Field names a numeric column of a daily record
type Field string

const (
	FieldOpen           Field = "open"
	FieldHigh           Field = "high"
	FieldLow            Field = "low"
	FieldClose          Field = "close"
	FieldVolume         Field = "volume"
	FieldExDividend     Field = "ex_dividend"
	FieldSplitRatio     Field = "split_ratio"
	FieldAdjustedOpen   Field = "adj_open"
	FieldAdjustedHigh   Field = "adj_high"
	FieldAdjustedLow    Field = "adj_low"
	FieldAdjustedClose  Field = "adj_close"
	FieldAdjustedVolume Field = "adj_volume"
)

// PriceFields selects the open/high/low/close/volume fields of one variant
// (raw or split/dividend adjusted).
type PriceFields struct {
	Open   Field
	High   Field
	Low    Field
	Close  Field
	Volume Field
}

var (
	rawFields = PriceFields{
		Open:   FieldOpen,
		High:   FieldHigh,
		Low:    FieldLow,
		Close:  FieldClose,
		Volume: FieldVolume,
	}
	adjustedFields = PriceFields{
		Open:   FieldAdjustedOpen,
		High:   FieldAdjustedHigh,
		Low:    FieldAdjustedLow,
		Close:  FieldAdjustedClose,
		Volume: FieldAdjustedVolume,
	}
)

// Fields returns the adjusted variant when adjusted is true, the raw one otherwise
func Fields(adjusted bool) PriceFields {
	if adjusted {
		return adjustedFields
	}
	return rawFields
}

// FieldSet maps record fields to provider column names
type FieldSet struct {
	DateColumn string
	Columns    map[string]Field
}

// WikiFieldSet returns the column layout of the WIKI daily price dataset
func WikiFieldSet() FieldSet {
	return FieldSet{
		DateColumn: "Date",
		Columns: map[string]Field{
			"Open":        FieldOpen,
			"High":        FieldHigh,
			"Low":         FieldLow,
			"Close":       FieldClose,
			"Volume":      FieldVolume,
			"Ex-Dividend": FieldExDividend,
			"Split Ratio": FieldSplitRatio,
			"Adj. Open":   FieldAdjustedOpen,
			"Adj. High":   FieldAdjustedHigh,
			"Adj. Low":    FieldAdjustedLow,
			"Adj. Close":  FieldAdjustedClose,
			"Adj. Volume": FieldAdjustedVolume,
		},
	}
}

// FieldFor returns the field mapped to a column name
func (fs FieldSet) FieldFor(column string) (Field, bool) {
	f, ok := fs.Columns[column]
	return f, ok
}

// DailyRecord is one trading day of a symbol
type DailyRecord struct {
	Date   Date              `json:"date"`
	Values map[Field]float64 `json:"values"`
}

// NewDailyRecord creates a record for the given date
func NewDailyRecord(date Date) DailyRecord {
	return DailyRecord{Date: date, Values: make(map[Field]float64)}
}

// Value returns the value of f, or 0 when the provider left it empty
func (r DailyRecord) Value(f Field) float64 {
	return r.Values[f]
}

// Has reports whether the record carries a value for f
func (r DailyRecord) Has(f Field) bool {
	_, ok := r.Values[f]
	return ok
}

// TimeSeries is the ordered daily history of one symbol over a date range.
// Records keep provider order.
type TimeSeries struct {
	Symbol  string        `json:"symbol"`
	Range   DateRange     `json:"range"`
	Records []DailyRecord `json:"records"`
}

// Len returns the number of records
func (ts TimeSeries) Len() int {
	return len(ts.Records)
}

// IsEmpty reports whether the series has no records
func (ts TimeSeries) IsEmpty() bool {
	return len(ts.Records) == 0
}

// IsReverseChronological reports whether every record is strictly newer than the next
func (ts TimeSeries) IsReverseChronological() bool {
	for i := 1; i < len(ts.Records); i++ {
		if !ts.Records[i-1].Date.After(ts.Records[i].Date) {
			return false
		}
	}
	return true
}
