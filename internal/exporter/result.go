package exporter

import (
	"sort"

	"stockstats/pkg/contracts/domain"
)

// Table is the flat form of a result, used for CSV and XLSX output.
// Cells hold strings, float64 or int values; nil renders as an empty cell.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// records renders the rows as CSV text
func (t Table) records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = formatCell(cell)
		}
		out[i] = rec
	}
	return out
}

// Result pairs the JSON value of a command with its table form
type Result struct {
	Value interface{}
	Table Table
}

// CatalogResult exports the symbol catalog in provider order
func CatalogResult(catalog *domain.SymbolCatalog) Result {
	t := Table{Name: "symbols", Headers: []string{"symbol", "description"}}
	catalog.Each(func(symbol, description string) {
		t.Rows = append(t.Rows, []interface{}{symbol, description})
	})
	return Result{Value: catalog, Table: t}
}

// MonthAveragesResult exports monthly averages, months ascending within each symbol
func MonthAveragesResult(res *domain.SymbolResults[domain.MonthlyAverages]) Result {
	t := Table{Name: "month-averages", Headers: []string{"symbol", "month", "average_open", "average_close"}}
	for _, symbol := range res.Symbols() {
		averages, _ := res.Get(symbol)
		months := make([]domain.MonthKey, 0, len(averages))
		for m := range averages {
			months = append(months, m)
		}
		sort.Slice(months, func(i, j int) bool {
			if months[i].Year != months[j].Year {
				return months[i].Year < months[j].Year
			}
			return months[i].Month < months[j].Month
		})
		for _, m := range months {
			avg := averages[m]
			t.Rows = append(t.Rows, []interface{}{symbol, m.String(), avg.AverageOpen, avg.AverageClose})
		}
	}
	return Result{Value: res, Table: t}
}

// VarianceResult exports the top variance day of each symbol
func VarianceResult(res *domain.SymbolResults[domain.VarianceDay]) Result {
	t := Table{Name: "top-variance-days", Headers: []string{"symbol", "date", "variance"}}
	for _, symbol := range res.Symbols() {
		day, _ := res.Get(symbol)
		t.Rows = append(t.Rows, []interface{}{symbol, day.Date.String(), day.Variance})
	}
	return Result{Value: res, Table: t}
}

// BusyDaysResult exports one row per busy day, dates ascending. A symbol
// without busy days still gets a row carrying its average volume.
func BusyDaysResult(res *domain.SymbolResults[domain.BusyDays]) Result {
	t := Table{Name: "busy-days", Headers: []string{"symbol", "average_volume", "date", "volume"}}
	for _, symbol := range res.Symbols() {
		busy, _ := res.Get(symbol)
		if len(busy.Days) == 0 {
			t.Rows = append(t.Rows, []interface{}{symbol, busy.AverageVolume, nil, nil})
			continue
		}

		dates := make([]domain.Date, 0, len(busy.Days))
		for d := range busy.Days {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for _, d := range dates {
			t.Rows = append(t.Rows, []interface{}{symbol, busy.AverageVolume, d.String(), busy.Days[d]})
		}
	}
	return Result{Value: res, Table: t}
}

// BiggestLoserResult exports one row per tied symbol
func BiggestLoserResult(loser domain.BiggestLoser) Result {
	t := Table{Name: "biggest-loser", Headers: []string{"symbol", "days"}}
	for _, symbol := range loser.Symbols {
		t.Rows = append(t.Rows, []interface{}{symbol, loser.Days})
	}
	return Result{Value: loser, Table: t}
}
