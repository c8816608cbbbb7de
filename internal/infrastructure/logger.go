package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"stockstats/internal/config"
)

// Log outputs accepted by LoggingConfig.Output
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

// NewLogger builds the JSON logger of one process. Console output goes to
// console (stderr for the CLI, since stdout carries results). The returned
// close func releases the log file, if any, and is always non-nil.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, func() error, error) {
	output := console
	closeFn := func() error { return nil }

	switch strings.ToLower(cfg.Output) {
	case OutputFile, OutputBoth:
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn = file.Close
		output = file
		if strings.EqualFold(cfg.Output, OutputBoth) {
			output = io.MultiWriter(console, file)
		}
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     parseLogLevel(cfg.Level),
	})
	return slog.New(&traceHandler{Handler: handler}), closeFn, nil
}

// traceHandler adds the trace_id carried by the context to every record
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel maps a config level to slog; unknown levels are info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogFile opens filePath for appending, creating its directory
func openLogFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	return file, nil
}
