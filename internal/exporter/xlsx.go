package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"stockstats/internal/files"
)

// defaultSheet is the sheet every new workbook starts with
const defaultSheet = "Sheet1"

// XLSXWriter writes tables as Excel workbooks, one sheet per table
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// WriteWorkbook saves tables to filePath, replacing any existing file
func (w *XLSXWriter) WriteWorkbook(filePath string, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range tables {
		sheet := t.Name
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}

		if err := w.writeSheet(f, sheet, t, headerStyle); err != nil {
			return err
		}
	}

	if err := files.EnsureParentDir(filePath); err != nil {
		return err
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook written",
		slog.String("file_path", filePath),
		slog.Int("sheets", len(tables)))
	return nil
}

func (w *XLSXWriter) writeSheet(f *excelize.File, sheet string, t Table, headerStyle int) error {
	headers := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers of %s: %w", sheet, err)
	}
	if len(headers) > 0 {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("failed to style headers of %s: %w", sheet, err)
		}
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
