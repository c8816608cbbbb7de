package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// prettyIndent is the indent of pretty JSON output
const prettyIndent = "    "

// WriteJSON writes v followed by a newline. Compact output keeps the key
// order v marshals with; pretty output is indented with sorted keys.
func WriteJSON(out io.Writer, v interface{}, pretty bool) error {
	if pretty {
		sorted, err := sortKeys(v)
		if err != nil {
			return err
		}
		v = sorted
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", prettyIndent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// sortKeys re-decodes v into generic maps, which encoding/json writes in
// key order. Numbers are kept as json.Number so their text is unchanged.
func sortKeys(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to re-decode JSON: %w", err)
	}
	return generic, nil
}
