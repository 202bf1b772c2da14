package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidatePositive checks that a physical parameter such as the broadening
// or the temperature is a finite number strictly greater than zero.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be finite, got %v", name, v)
	}
	if v <= 0 {
		return New(ErrCodeInvalidInput, "%s must be > 0, got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that a count such as a worker limit is not negative.
func ValidateNonNegative(name string, v int) error {
	if v < 0 {
		return New(ErrCodeInvalidInput, "%s must be >= 0, got %d", name, v)
	}
	return nil
}

// ValidatePath validates a local file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}
