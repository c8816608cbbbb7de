package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"stockstats/internal/files"
)

// Options selects the output format and destination
type Options struct {
	Format Format
	Pretty bool
	// BOM prefixes CSV output with a UTF-8 byte order mark
	BOM bool
	// Path writes to a file instead of the stream; required for xlsx
	Path string
}

// Exporter writes command results as JSON, CSV or XLSX
type Exporter struct {
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// New creates an exporter
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{
		csv:    NewCSVWriter(logger),
		xlsx:   NewXLSXWriter(logger),
		logger: logger,
	}
}

// Export writes r to opts.Path when set, otherwise to out
func (e *Exporter) Export(out io.Writer, r Result, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}

	switch {
	case opts.Format == FormatXLSX:
		if opts.Path == "" {
			return fmt.Errorf("xlsx output requires an output file")
		}
		return e.xlsx.WriteWorkbook(opts.Path, r.Table)
	case opts.Path == "":
		return e.write(out, r, opts)
	case opts.Format == FormatCSV:
		return e.csv.WriteCSV(opts.Path, csvOptions(r, opts))
	}

	if err := files.EnsureParentDir(opts.Path); err != nil {
		return err
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := e.write(f, r, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	e.logger.Info("Result written",
		slog.String("format", string(opts.Format)),
		slog.String("path", opts.Path))
	return nil
}

func (e *Exporter) write(out io.Writer, r Result, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return WriteJSON(out, r.Value, opts.Pretty)
	case FormatCSV:
		return e.csv.Write(out, csvOptions(r, opts))
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

func csvOptions(r Result, opts Options) WriteOptions {
	return WriteOptions{
		Headers:   r.Table.Headers,
		Records:   r.Table.records(),
		BOMPrefix: opts.BOM,
	}
}
