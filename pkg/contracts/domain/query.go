package domain

import (
	"bytes"
	"encoding/json"
)

// Query selects the symbols and date range of an analysis request
type Query struct {
	Symbols  []string  `json:"symbols" validate:"required,min=1,dive,ticker"`
	Range    DateRange `json:"range"`
	Adjusted bool      `json:"adjusted"`
}

// SymbolResults holds one result per symbol in request order.
// It encodes to a JSON object keyed by symbol.
type SymbolResults[T any] struct {
	order  []string
	values map[string]T
}

// NewSymbolResults creates an empty result set
func NewSymbolResults[T any]() *SymbolResults[T] {
	return &SymbolResults[T]{values: make(map[string]T)}
}

// Set stores the result of a symbol, keeping its first position
func (r *SymbolResults[T]) Set(symbol string, value T) {
	if _, exists := r.values[symbol]; !exists {
		r.order = append(r.order, symbol)
	}
	r.values[symbol] = value
}

// Get returns the result of a symbol
func (r *SymbolResults[T]) Get(symbol string) (T, bool) {
	v, ok := r.values[symbol]
	return v, ok
}

// Symbols returns the symbols in request order
func (r *SymbolResults[T]) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of symbols
func (r *SymbolResults[T]) Len() int {
	return len(r.order)
}

// MarshalJSON encodes the results as an object in request order
func (r *SymbolResults[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[s])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
