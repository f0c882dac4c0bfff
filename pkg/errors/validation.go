package errors

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ValidateAnnotationName validates a user supplied annotation name before it
// is stored or used as a file name component.
//
// The rules are conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateAnnotationName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "annotation name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "annotation name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "annotation name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "annotation name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePositive checks that a numeric parameter is finite and > 0.
func ValidatePositive(param string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be a finite number", param)
	}
	if v <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %g", param, v)
	}
	return nil
}

// ValidateAngle checks that an angle threshold lies in [0, pi] radians.
func ValidateAngle(param string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > math.Pi {
		return New(ErrCodeInvalidInput, "%s must be between 0 and pi radians, got %g", param, v)
	}
	return nil
}

// ParseTriple parses a comma separated triple such as "11.24,11.24,25".
// All three components must be positive.
func ParseTriple(param, s string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, New(ErrCodeInvalidInput, "%s must have three comma separated components, got %q", param, s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, Wrap(ErrCodeInvalidInput, err, "%s component %d", param, i)
		}
		if err := ValidatePositive(param, v); err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
