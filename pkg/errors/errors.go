// Package errors provides structured error types for postkit.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI, HTTP and MCP surfaces
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - *_NOT_FOUND: a referenced block, node, session or draft does not exist
//   - INVALID_*: input validation failures
//   - NOT_*_BLOCK: a block exists but has the wrong kind for the operation
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeBlockNotFound, "block %q does not exist", id)
//	if errors.Is(err, errors.ErrCodeBlockNotFound) {
//	    // stale id from the caller
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDocument, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Precondition violations (stale ids)
	ErrCodeBlockNotFound   Code = "BLOCK_NOT_FOUND"
	ErrCodeNodeNotFound    Code = "NODE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeDraftNotFound   Code = "DRAFT_NOT_FOUND"

	// Kind mismatches
	ErrCodeNotTextBlock  Code = "NOT_TEXT_BLOCK"
	ErrCodeNotImageBlock Code = "NOT_IMAGE_BLOCK"

	// Input validation errors
	ErrCodeInvalidLayout   Code = "INVALID_LAYOUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidArgs     Code = "INVALID_ARGS"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPreset   Code = "INVALID_PRESET"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeUnknownAction   Code = "UNKNOWN_ACTION"

	// State conflicts
	ErrCodeDragInProgress Code = "DRAG_IN_PROGRESS"

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

// IsNotFound reports whether err carries one of the *_NOT_FOUND codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeBlockNotFound, ErrCodeNodeNotFound, ErrCodeSessionNotFound, ErrCodeDraftNotFound:
		return true
	}
	return false
}

// IsInvalid reports whether err was caused by bad caller input rather than
// an internal failure.
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidLayout, ErrCodeInvalidFormat, ErrCodeInvalidArgs, ErrCodeInvalidDocument,
		ErrCodeInvalidPreset, ErrCodeInvalidConfig, ErrCodeUnknownAction,
		ErrCodeNotTextBlock, ErrCodeNotImageBlock:
		return true
	}
	return false
}
