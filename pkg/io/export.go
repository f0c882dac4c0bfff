package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/scalableminds/wknml/pkg/nml"
)

// WriteJSON encodes an annotation as indented JSON and writes it to w.
// Absent optional fields are omitted, so the output can be re-imported with
// [ReadJSON] without gaining defaults.
func WriteJSON(n nml.NML, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns the compact JSON encoding of n. It is the encoding
// used for cache entries.
func MarshalJSON(n nml.NML) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ExportJSON writes an annotation to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(n nml.NML, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteJSON(n, f)
}
