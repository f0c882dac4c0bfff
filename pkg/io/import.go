package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
)

// ReadJSON decodes a JSON annotation from r.
//
// The input must be a single JSON object in the shape produced by
// [WriteJSON]. Unknown fields are rejected so that arbitrary JSON documents
// are not mistaken for an empty annotation. Trailing data after the object
// is an error as well.
//
// Structural problems such as edges that reference missing nodes are not
// checked here; they surface when the annotation is converted to its graph
// view. ReadJSON does not close r.
func ReadJSON(r io.Reader) (nml.NML, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var n nml.NML
	if err := dec.Decode(&n); err != nil {
		return nml.NML{}, wkerrors.Wrap(wkerrors.ErrCodeInvalidFormat, err, "decode annotation JSON")
	}
	if dec.More() {
		return nml.NML{}, wkerrors.New(wkerrors.ErrCodeInvalidFormat, "decode annotation JSON: trailing data")
	}
	return n, nil
}

// UnmarshalJSON decodes an annotation from data. See [ReadJSON].
func UnmarshalJSON(data []byte) (nml.NML, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ImportJSON reads a JSON file at path and returns the decoded annotation.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. The error wraps the underlying cause with the file path for context.
func ImportJSON(path string) (nml.NML, error) {
	f, err := os.Open(path)
	if err != nil {
		return nml.NML{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := ReadJSON(f)
	if err != nil {
		return nml.NML{}, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
