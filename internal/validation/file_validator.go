package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator checks output destinations before results are written
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	testFile.Close()
	os.Remove(testFile.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that path can be written and carries the
// extension expected for the format (".csv" or ".xlsx"; anything for json).
func (v *FileValidator) ValidateOutputFile(path, format string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		v.logger.Error("Output path is a directory",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch format {
	case "xlsx":
		if ext != ".xlsx" {
			return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
		}
	case "csv":
		if ext != ".csv" {
			return fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
		}
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}
