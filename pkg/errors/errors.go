// Package errors provides structured error types for lindhard.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes that matter most are the three grid-file failures:
//   - INVALID_FORMAT: a required field (counts, origin, delta, shape, data)
//     is missing or malformed in a grid file
//   - SHAPE_MISMATCH: the numeric payload does not fit the declared grid
//   - UNSUPPORTED_FORMAT: an unknown output format selector was requested
//
// # Usage
//
//	err := errors.New(errors.ErrCodeFormat, "missing %s", "origin")
//	if errors.Is(err, errors.ErrCodeFormat) {
//	    // Handle malformed input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeFormat            Code = "INVALID_FORMAT"
	ErrCodeShapeMismatch     Code = "SHAPE_MISMATCH"
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
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

// FormatError reports a missing or malformed field in a grid file.
func FormatError(field, format string, args ...any) *Error {
	return New(ErrCodeFormat, "%s: %s", field, fmt.Sprintf(format, args...))
}

// ShapeMismatchError reports a payload that does not fit the declared grid.
func ShapeMismatchError(format string, args ...any) *Error {
	return New(ErrCodeShapeMismatch, format, args...)
}

// UnsupportedFormatError reports an unknown output format selector.
func UnsupportedFormatError(name string, supported ...string) *Error {
	if len(supported) == 0 {
		return New(ErrCodeUnsupportedFormat, "unsupported format %q", name)
	}
	return New(ErrCodeUnsupportedFormat, "unsupported format %q (must be one of: %s)", name, strings.Join(supported, ", "))
}
