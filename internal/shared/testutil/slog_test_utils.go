package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured log line. Attrs holds resolved values, so
// slog.Int attributes appear as int64.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// capture is shared by a handler and all handlers derived from it
type capture struct {
	mu      sync.Mutex
	records []LogRecord
}

func (c *capture) add(r LogRecord) {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
}

func (c *capture) snapshot() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LogRecord(nil), c.records...)
}

// BufferedSlogHandler records every log line for assertions. Attributes
// bound with With are merged into each record; a group prefixes keys
// with "group.". Records are also echoed through t.Logf.
type BufferedSlogHandler struct {
	capture *capture
	bound   []slog.Attr
	prefix  string
	t       *testing.T
}

// NewBufferedSlogHandler creates an empty handler; t may be nil
func NewBufferedSlogHandler(t *testing.T) *BufferedSlogHandler {
	return &BufferedSlogHandler{capture: &capture{}, t: t}
}

// NewTestLogger returns a logger writing into a fresh BufferedSlogHandler
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	h := NewBufferedSlogHandler(t)
	return slog.New(h), h
}

func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.bound)+r.NumAttrs())
	for _, a := range h.bound {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Resolve().Any()
		return true
	})

	h.capture.add(LogRecord{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *h
	derived.bound = append(append([]slog.Attr(nil), h.bound...), attrs...)
	return &derived
}

func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	derived := *h
	derived.prefix = name + "."
	return &derived
}

// GetRecords returns a copy of everything captured so far
func (h *BufferedSlogHandler) GetRecords() []LogRecord {
	return h.capture.snapshot()
}

// GetRecordsByLevel returns the records logged at exactly level
func (h *BufferedSlogHandler) GetRecordsByLevel(level slog.Level) []LogRecord {
	return h.filter(func(r LogRecord) bool { return r.Level == level })
}

// ContainsMessage reports whether any message contains substr
func (h *BufferedSlogHandler) ContainsMessage(substr string) bool {
	return len(h.filter(func(r LogRecord) bool { return strings.Contains(r.Message, substr) })) > 0
}

// ContainsAttr reports whether any record has key set to value
func (h *BufferedSlogHandler) ContainsAttr(key string, value any) bool {
	return len(h.filter(func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == value
	})) > 0
}

func (h *BufferedSlogHandler) Count() int {
	h.capture.mu.Lock()
	defer h.capture.mu.Unlock()
	return len(h.capture.records)
}

func (h *BufferedSlogHandler) Clear() {
	h.capture.mu.Lock()
	h.capture.records = nil
	h.capture.mu.Unlock()
}

func (h *BufferedSlogHandler) filter(keep func(LogRecord) bool) []LogRecord {
	var out []LogRecord
	for _, r := range h.capture.snapshot() {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// AssertLogContains fails t unless a record at level contains message
func AssertLogContains(t *testing.T, handler *BufferedSlogHandler, level slog.Level, message string) {
	t.Helper()
	records := handler.GetRecordsByLevel(level)
	for _, r := range records {
		if strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("no %s log containing %q", level, message)
	for _, r := range records {
		t.Logf("  - %s", r.Message)
	}
}

// AssertNoErrors fails t for every error-level record
func AssertNoErrors(t *testing.T, handler *BufferedSlogHandler) {
	t.Helper()
	for _, r := range handler.GetRecordsByLevel(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
