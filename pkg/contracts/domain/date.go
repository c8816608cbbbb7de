package domain

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the provider's calendar date format
	DateLayout = "2006-01-02"
	// MonthLayout is the format used for month keys and CLI month arguments
	MonthLayout = "2006-01"
)

// Date represents a calendar date without a time component.
// It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate creates a Date from its parts
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in its own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// MonthKey returns the month the date belongs to
func (d Date) MonthKey() MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

// Before reports whether d is strictly earlier than other
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler so dates work as JSON map keys
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthKey identifies a calendar month
type MonthKey struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string
func ParseMonth(s string) (MonthKey, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// FirstDay returns the first calendar day of the month
func (m MonthKey) FirstDay() Date {
	return Date{Year: m.Year, Month: m.Month, Day: 1}
}

// LastDay returns the last calendar day of the month
func (m MonthKey) LastDay() Date {
	// day 0 of the next month normalizes to the last day of this one
	return DateOf(time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC))
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler
func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MonthKey) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// MonthRange expands a start and end month into an inclusive date range
// running from the first day of start to the last day of end.
func MonthRange(start, end MonthKey) DateRange {
	return DateRange{Start: start.FirstDay(), End: end.LastDay()}
}

// Valid reports whether the range is not inverted
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// Contains reports whether d falls inside the range
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}
