package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/praxos/cortex/internal/types"
)

// LLM error codes
const (
	ErrCodeCompletionFailed types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrCodeAuthFailed       types.ErrorCode = "LLM_AUTH_FAILED"
	ErrCodeTimeout          types.ErrorCode = "LLM_TIMEOUT"
	ErrCodeUnknownProvider  types.ErrorCode = "LLM_UNKNOWN_PROVIDER"
)

// NewCompletionError creates a retryable error for a failed completion call.
func NewCompletionError(provider string, cause error) *types.CortexError {
	return &types.CortexError{
		Code:      ErrCodeCompletionFailed,
		Message:   fmt.Sprintf("%s completion failed", provider),
		Retryable: true,
		Cause:     cause,
	}
}

// NewAuthError creates an error for missing or rejected credentials.
func NewAuthError(provider string) *types.CortexError {
	return types.NewError(ErrCodeAuthFailed,
		fmt.Sprintf("%s provider requires an API key", provider))
}

// NewTimeoutError creates a retryable error for a timed-out completion call.
// Timeouts are treated like schema violations for retry accounting.
func NewTimeoutError(provider string, cause error) *types.CortexError {
	return &types.CortexError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("%s completion timed out", provider),
		Retryable: true,
		Cause:     cause,
	}
}

// TranslateError maps a backend error to the cortex error taxonomy.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(provider, err)
	}
	return NewCompletionError(provider, err)
}
