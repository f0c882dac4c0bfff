package nml

import (
	"fmt"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
)

// MalformedInputError reports that the input is not well-formed XML. Err is
// the lexer error exactly as encoding/xml returned it.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string { return "malformed input: " + e.Err.Error() }
func (e *MalformedInputError) Unwrap() error { return e.Err }

// Code implements errors.Coder.
func (e *MalformedInputError) Code() wkerrors.Code { return wkerrors.ErrCodeMalformedInput }

// MissingAttributeError reports a required attribute (or required tag) that
// is absent from the document.
type MissingAttributeError struct {
	Tag  string
	Attr string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing attribute %q on <%s>", e.Attr, e.Tag)
}

// Code implements errors.Coder.
func (e *MissingAttributeError) Code() wkerrors.Code { return wkerrors.ErrCodeMissingAttribute }

// InvalidAttributeError reports an attribute that is present but cannot be
// converted to its declared type.
type InvalidAttributeError struct {
	Tag   string
	Attr  string
	Value string
	Err   error
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("invalid value %q for attribute %q on <%s>: %v", e.Value, e.Attr, e.Tag, e.Err)
}

func (e *InvalidAttributeError) Unwrap() error { return e.Err }

// Code implements errors.Coder.
func (e *InvalidAttributeError) Code() wkerrors.Code { return wkerrors.ErrCodeInvalidAttribute }

// StructuralError reports a tag in a position the format does not allow,
// such as a <node> outside of any <thing>.
type StructuralError struct {
	Tag    string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at <%s>: %s", e.Tag, e.Reason)
}

// Code implements errors.Coder.
func (e *StructuralError) Code() wkerrors.Code { return wkerrors.ErrCodeStructural }
