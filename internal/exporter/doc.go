// Package exporter writes stockstats results as JSON, CSV or Excel workbooks.
//
// Each command result is wrapped in a Result holding its JSON value and a
// flat Table:
//
//	r := exporter.MonthAveragesResult(averages)
//	err := exporter.New(logger).Export(os.Stdout, r, exporter.Options{
//		Format: exporter.FormatJSON,
//		Pretty: true,
//	})
//
// Compact JSON keeps the order the value marshals with, so the symbol
// catalog comes out in provider order. Pretty JSON is indented by four
// spaces with keys sorted.
//
// CSVWriter writes a header row and records, optionally behind a UTF-8 BOM
// for Excel. XLSXWriter writes one sheet per table with a bold header row.
package exporter
