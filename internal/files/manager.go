package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Manager owns the temporary files that hold provider downloads.
// Every file it creates is tracked until Remove or Cleanup deletes it.
type Manager struct {
	dir     string
	logger  *slog.Logger
	mu      sync.Mutex
	tracked map[string]struct{}
}

// NewManager creates a manager placing files in dir (os.TempDir when empty)
func NewManager(dir string, logger *slog.Logger) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Manager{
		dir:     dir,
		logger:  logger.With(slog.String("component", "files")),
		tracked: make(map[string]struct{}),
	}
}

// Dir returns the directory temp files are created in
func (m *Manager) Dir() string {
	return m.dir
}

// CreateTemp creates and opens a new tracked file. The caller closes it and
// hands the path back to Remove when done.
func (m *Manager) CreateTemp(pattern string) (*os.File, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	f, err := os.CreateTemp(m.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	m.mu.Lock()
	m.tracked[f.Name()] = struct{}{}
	m.mu.Unlock()

	m.logger.Debug("Created temp file", slog.String("path", f.Name()))
	return f, nil
}

// Remove deletes a file and stops tracking it. A file that is already gone is not an error.
func (m *Manager) Remove(path string) error {
	m.mu.Lock()
	delete(m.tracked, path)
	m.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("Failed to remove temp file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	m.logger.Debug("Removed temp file", slog.String("path", path))
	return nil
}

// Cleanup removes every file still tracked
func (m *Manager) Cleanup() error {
	var errs []error
	for _, path := range m.Tracked() {
		if err := m.Remove(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tracked returns the tracked paths in sorted order
func (m *Manager) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.tracked))
	for p := range m.tracked {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureParentDir creates the directory that will hold path
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
