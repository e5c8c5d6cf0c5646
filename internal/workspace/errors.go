package workspace

import (
	"fmt"

	"github.com/praxos/cortex/internal/types"
)

// Workspace error codes
const (
	ErrCodeScopeInvalid  = types.VALIDATION_FAILED
	ErrCodeScopeNotFound = types.NOT_FOUND
	ErrCodeWorkspaceIO   = types.STORE_IO_FAILED
)

// NewWorkspaceIOError creates an error for a failed durability operation.
func NewWorkspaceIOError(message string, cause error) *types.CortexError {
	return types.WrapError(ErrCodeWorkspaceIO, message, cause)
}

// NewScopeNotFoundError creates an error for an absent scope.
func NewScopeNotFoundError(scope string) *types.CortexError {
	return types.NewError(ErrCodeScopeNotFound, fmt.Sprintf("workspace scope not found: %s", scope))
}
