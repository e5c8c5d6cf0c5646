package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Cortex errors.
type ErrorCode string

// Store error codes
const (
	VALIDATION_FAILED ErrorCode = "VALIDATION_FAILED"
	NOT_FOUND         ErrorCode = "NOT_FOUND"
	STORE_IO_FAILED   ErrorCode = "STORE_IO_FAILED"
)

// Specialist error codes
const (
	SCHEMA_VIOLATION  ErrorCode = "SCHEMA_VIOLATION"
	SPECIALIST_FAILED ErrorCode = "SPECIALIST_FAILED"
)

// Coordinator error codes
const (
	STAGE_DECISION_INVALID ErrorCode = "STAGE_DECISION_INVALID"
	TURN_CANCELLED         ErrorCode = "TURN_CANCELLED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// CortexError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for
// error handling logic.
type CortexError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *CortexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping chains.
func (e *CortexError) Unwrap() error {
	return e.Cause
}

// Is matches errors by error code. Returns true if target is a CortexError
// with the same Code, enabling errors.Is against sentinel values.
func (e *CortexError) Is(target error) bool {
	var ce *CortexError
	if errors.As(target, &ce) {
		return e.Code == ce.Code
	}
	return false
}

// NewError creates a new non-retryable CortexError.
func NewError(code ErrorCode, message string) *CortexError {
	return &CortexError{Code: code, Message: message}
}

// NewRetryableError creates a new retryable CortexError. Use this for
// transient failures that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *CortexError {
	return &CortexError{Code: code, Message: message, Retryable: true}
}

// WrapError creates a new non-retryable CortexError that wraps an existing
// error. The wrapped error is accessible via Unwrap().
func WrapError(code ErrorCode, message string, cause error) *CortexError {
	return &CortexError{Code: code, Message: message, Cause: cause}
}

// HasCode reports whether err or anything it wraps is a CortexError with the
// given code.
func HasCode(err error, code ErrorCode) bool {
	var ce *CortexError
	if errors.As(err, &ce) {
		if ce.Code == code {
			return true
		}
		return HasCode(ce.Cause, code)
	}
	return false
}

// IsRetryable reports whether err carries a retryable hint.
func IsRetryable(err error) bool {
	var ce *CortexError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}
