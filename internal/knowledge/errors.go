package knowledge

import "github.com/praxos/cortex/internal/types"

// NewEntryInvalidError creates a validation error for a malformed entry or
// store input.
func NewEntryInvalidError(message string) *types.CortexError {
	return types.NewError(types.VALIDATION_FAILED, message)
}

// NewEntryNotFoundError creates a not-found error for an absent entry id.
func NewEntryNotFoundError(id types.ID) *types.CortexError {
	return types.NewError(types.NOT_FOUND, "knowledge entry not found: "+id.String())
}

// NewStoreIOError creates an error for a failed durability-layer operation.
// Store I/O failures abort the current turn; they are never silently
// absorbed.
func NewStoreIOError(message string, cause error) *types.CortexError {
	return types.WrapError(types.STORE_IO_FAILED, message, cause)
}
