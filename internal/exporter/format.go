package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects how results are written
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv or xlsx in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want json, csv or xlsx)", s)
	}
}

// formatFloat formats a float64 value for CSV output with the shortest
// representation that round-trips, so no precision is lost
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatCell renders one table cell as CSV text
func formatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return formatFloat(c)
	case int:
		return strconv.Itoa(c)
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}
