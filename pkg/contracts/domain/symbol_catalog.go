package domain

import (
	"bytes"
	"encoding/json"
)

// SymbolCatalog is an ordered mapping from bare ticker symbol to description.
// Iteration follows first insertion; re-adding a symbol replaces its
// description without moving it.
type SymbolCatalog struct {
	order        []string
	descriptions map[string]string
}

// NewSymbolCatalog creates an empty catalog
func NewSymbolCatalog() *SymbolCatalog {
	return &SymbolCatalog{descriptions: make(map[string]string)}
}

// Add inserts or replaces a symbol
func (c *SymbolCatalog) Add(symbol, description string) {
	if _, exists := c.descriptions[symbol]; !exists {
		c.order = append(c.order, symbol)
	}
	c.descriptions[symbol] = description
}

// Len returns the number of symbols
func (c *SymbolCatalog) Len() int {
	return len(c.order)
}

// Symbols returns the symbols in catalog order
func (c *SymbolCatalog) Symbols() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Description returns the description of a symbol
func (c *SymbolCatalog) Description(symbol string) (string, bool) {
	d, ok := c.descriptions[symbol]
	return d, ok
}

// Map returns a copy of the catalog as a plain map
func (c *SymbolCatalog) Map() map[string]string {
	out := make(map[string]string, len(c.descriptions))
	for k, v := range c.descriptions {
		out[k] = v
	}
	return out
}

// Each calls fn for every entry in catalog order
func (c *SymbolCatalog) Each(fn func(symbol, description string)) {
	for _, s := range c.order {
		fn(s, c.descriptions[s])
	}
}

// MarshalJSON encodes the catalog as a JSON object in catalog order
func (c *SymbolCatalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.descriptions[s])
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
