package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies an error for callers and transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error is a coded error. All errors crossing a service boundary carry a code.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NotFound builds the standard not-found error for a resource/id pair.
func NotFound(resource, id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found: %s", resource, id))
}

// InvalidInput builds a validation error for a named field.
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason))
}

// Conflict builds a concurrent-modification / state-conflict error.
func Conflict(message string) *Error {
	return New(ErrCodeConflict, message)
}

// CodeOf returns the code of err, or ErrCodeInternal when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether err is a NOT_FOUND coded error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsConflict reports whether err is a CONFLICT coded error.
func IsConflict(err error) bool { return CodeOf(err) == ErrCodeConflict }
