// Package errors defines stable error codes for the engine boundary.
// Per the error-handling policy, only caller-input problems surface as
// errors; missing artifacts and empty histories come back as empty
// results from the operations themselves.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// UnknownFramework indicates an unrecognized framework override
	UnknownFramework ErrorCode = "UNKNOWN_FRAMEWORK"
	// InvalidArgument indicates a caller-supplied parameter is out of range
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// StorageFailure indicates the persistence layer failed
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// EngineError is the error type returned across the engine boundary.
type EngineError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// New creates an EngineError with the given code and message.
func New(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// Newf creates an EngineError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an EngineError wrapping an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *EngineError {
	e := &EngineError{Code: code, Message: message, Cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// CodeOf extracts the ErrorCode from an error chain, or InternalError
// when the error is not an EngineError.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return InternalError
}
