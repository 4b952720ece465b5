// Package errors provides structured error types for primgen.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: configuration or input validation failures
//   - UNKNOWN_*: references to rules or axes that do not exist
//   - NOT_FOUND_*: resource not found
//   - INTERNAL_*: unexpected internal errors
//
// Configuration errors (bad delimiters, a capture rule without exactly one
// group, a template with the wrong number of placeholders) are always
// surfaced through this package. A trigger that matches without a balanced
// argument list is not an error and never reaches it.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDelimiters, "delimiters must be two characters, got %q", d)
//	if errors.Is(err, errors.ErrCodeInvalidDelimiters) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidPattern, origErr, "compile trigger %q", pattern)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input and configuration errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeInvalidPattern       Code = "INVALID_PATTERN"
	ErrCodeInvalidDelimiters    Code = "INVALID_DELIMITERS"
	ErrCodeInvalidTemplate      Code = "INVALID_TEMPLATE"
	ErrCodeInvalidCaptureGroups Code = "INVALID_CAPTURE_GROUPS"
	ErrCodeInvalidManifest      Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath          Code = "INVALID_PATH"
	ErrCodeInvalidName          Code = "INVALID_NAME"
	ErrCodeArityMismatch        Code = "ARITY_MISMATCH"

	// Reference errors
	ErrCodeUnknownRule Code = "UNKNOWN_RULE"
	ErrCodeUnknownAxis Code = "UNKNOWN_AXIS"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Runtime errors
	ErrCodeMatchFailed      Code = "MATCH_FAILED"
	ErrCodeCacheUnavailable Code = "CACHE_UNAVAILABLE"

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

// IsConfiguration reports whether err carries one of the configuration
// codes: invalid input, pattern, delimiters, template, capture groups,
// manifest, path or name, an arity mismatch, or an unknown reference.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidPattern, ErrCodeInvalidDelimiters,
		ErrCodeInvalidTemplate, ErrCodeInvalidCaptureGroups, ErrCodeInvalidManifest,
		ErrCodeInvalidPath, ErrCodeInvalidName, ErrCodeArityMismatch,
		ErrCodeUnknownRule, ErrCodeUnknownAxis:
		return true
	}
	return false
}
