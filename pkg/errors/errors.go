// Package errors provides structured error types for indexgraph.
//
// Every fatal condition in the ingestion pipeline maps to a [Code] so that the
// CLI and the HTTP API can react to the category of a failure without string
// matching:
//   - INTEGRITY: the registry index contradicts itself (duplicate identities)
//   - PARSE: a package-metadata file contains a malformed record
//   - CYCLE: an edge would close a cycle in the dependency graph
//   - IO: a file or directory could not be read
//   - NOT_FOUND / INVALID_INPUT: query-side failures
//
// Domain error types in other packages (parse, integrity and cycle errors)
// carry their own context fields and report their category through an
// ErrorCode method, so [Is] and [GetCode] work on them too.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid requirement: %s", req)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeVersionNotFound Code = "VERSION_NOT_FOUND"

	// Index and graph errors
	ErrCodeIntegrity Code = "INTEGRITY"
	ErrCodeParse     Code = "PARSE"
	ErrCodeCycle     Code = "CYCLE"
	ErrCodeIO        Code = "IO"

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

// Coder is implemented by domain error types that belong to a code category
// without being an *Error themselves.
type Coder interface {
	ErrorCode() Code
}

// Is reports whether err has the given error code.
// It walks the error chain and returns true for the first *Error or [Coder]
// whose code matches.
func Is(err error, code Code) bool {
	for err != nil {
		if c, ok := codeOf(err); ok && c == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		if c, ok := codeOf(err); ok {
			return c
		}
		err = errors.Unwrap(err)
	}
	return ""
}

func codeOf(err error) (Code, bool) {
	switch e := err.(type) {
	case *Error:
		return e.Code, true
	case Coder:
		return e.ErrorCode(), true
	}
	return "", false
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
