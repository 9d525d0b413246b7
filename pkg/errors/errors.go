// Package errors provides structured error types for the Archivis engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map onto the engine's failure taxonomy:
//   - PARSE_ERROR: malformed SVG/XML input, fatal for the call
//   - SCHEMA_INVALID / VALIDATION_FAILED: IR fails structural constraints
//   - STRUCTURAL_INTEGRITY: a patch would orphan an edge, patch rejected
//   - UNSUPPORTED_ACTION / NOT_FOUND: bad patch request, recoverable
//   - ENRICHMENT_FAILED: enrichment produced a non-validating document
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchemaInvalid, "block %s: negative bbox", id)
//	if errors.Is(err, errors.ErrCodeSchemaInvalid) {
//	    // Handle schema error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "analyze %s", svgID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input and document errors
	ErrCodeParse            Code = "PARSE_ERROR"
	ErrCodeSchemaInvalid    Code = "SCHEMA_INVALID"
	ErrCodeValidationFailed Code = "VALIDATION_FAILED"

	// Patch engine errors
	ErrCodeStructuralIntegrity Code = "STRUCTURAL_INTEGRITY"
	ErrCodeUnsupportedAction   Code = "UNSUPPORTED_ACTION"
	ErrCodeNotFound            Code = "NOT_FOUND"

	// Enrichment errors
	ErrCodeEnrichmentFailed Code = "ENRICHMENT_FAILED"

	// Version store errors
	ErrCodeStoreConflict Code = "STORE_CONFLICT"
	ErrCodeStore         Code = "STORE_ERROR"

	// Renderer errors
	ErrCodeRender Code = "RENDER_ERROR"

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
