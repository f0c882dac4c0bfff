// Package errors provides structured error codes for wknml.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// The parser and graph adapter return their own typed errors (for example
// nml.MissingAttributeError). Those types expose a Code method, so
// [GetCode] and [Is] classify them the same way as an [*Error].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid scale: %s", s)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Annotation format errors
	ErrCodeMalformedInput   Code = "MALFORMED_INPUT"
	ErrCodeMissingAttribute Code = "MISSING_ATTRIBUTE"
	ErrCodeInvalidAttribute Code = "INVALID_ATTRIBUTE"
	ErrCodeStructural       Code = "STRUCTURAL_ERROR"
	ErrCodeDanglingEdge     Code = "DANGLING_EDGE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Coder is implemented by typed errors that carry their own code.
type Coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a Coder with a
// matching code. The outermost coded error wins.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case Coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err was caused by bad input rather than by
// the environment. Callers use it to pick an exit status or HTTP status.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedInput, ErrCodeMissingAttribute, ErrCodeInvalidAttribute,
		ErrCodeStructural, ErrCodeDanglingEdge, ErrCodeInvalidInput, ErrCodeInvalidFormat:
		return true
	}
	return false
}
