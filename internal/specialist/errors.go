package specialist

import (
	"fmt"

	"github.com/praxos/cortex/internal/types"
)

// Specialist error codes
const (
	// ErrCodeSchemaViolation marks completion output that failed contract
	// validation. Retryable within the task's attempt budget.
	ErrCodeSchemaViolation = types.SCHEMA_VIOLATION

	// ErrCodeSpecialistFailed marks a task that exhausted its retries.
	ErrCodeSpecialistFailed = types.SPECIALIST_FAILED
)

// NewSchemaViolationError creates a retryable error for output that does
// not satisfy the declared result schema.
func NewSchemaViolationError(task string, cause error) *types.CortexError {
	return &types.CortexError{
		Code:      ErrCodeSchemaViolation,
		Message:   fmt.Sprintf("specialist %s produced output violating its schema", task),
		Retryable: true,
		Cause:     cause,
	}
}

// NewSpecialistFailedError creates the terminal error surfaced after the
// retry budget is spent.
func NewSpecialistFailedError(task string, attempts int, cause error) *types.CortexError {
	return types.WrapError(ErrCodeSpecialistFailed,
		fmt.Sprintf("specialist %s failed after %d attempts", task, attempts), cause)
}
