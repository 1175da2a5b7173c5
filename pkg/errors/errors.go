package errors

import (
	"errors"
	"fmt"
)

// Error codes shared across adapters and domain handlers.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL"
	CodeTimeout         = "TIMEOUT"
	CodeConflict        = "CONFLICT"
)

// AppError is the structured error type used throughout the system.
// It carries a stable Code for programmatic handling (e.g. "requeue vs
// drop" decisions in message handlers), a human message, and the
// underlying cause for chaining.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code, message, and optional cause.
func New(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Wrap attaches a message to an existing error, classifying it as internal
// unless it already carries an AppError code.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Code: appErr.Code, Message: message + ": " + appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: CodeInternal, Message: message, Cause: err}
}

// NotFound creates a CodeNotFound AppError.
func NotFound(message string, cause error) *AppError {
	return New(CodeNotFound, message, cause)
}

// Internal creates a CodeInternal AppError.
func Internal(message string, cause error) *AppError {
	return New(CodeInternal, message, cause)
}

// Unavailable creates a CodeUnavailable AppError, used to signal
// transient failures that a caller should retry/requeue.
func Unavailable(message string, cause error) *AppError {
	return New(CodeUnavailable, message, cause)
}

// InvalidArgument creates a CodeInvalidArgument AppError.
func InvalidArgument(message string, cause error) *AppError {
	return New(CodeInvalidArgument, message, cause)
}

// Conflict creates a CodeConflict AppError, used when an optimistic
// compare-and-set loses a race without being an operational failure.
func Conflict(message string, cause error) *AppError {
	return New(CodeConflict, message, cause)
}

// Is reports whether err (or any error in its chain) matches target.
// Re-exported so callers never need to import the standard errors
// package alongside this one.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target and sets
// target to that error value.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// CodeOf returns the Code of err if it is (or wraps) an AppError, and
// CodeInternal otherwise.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
