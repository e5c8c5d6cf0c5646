package coordinator

import (
	"fmt"

	"github.com/praxos/cortex/internal/types"
)

// Coordinator error codes
const (
	// ErrCodeStageDecisionInvalid marks a decision naming an unregistered
	// stage. This is a configuration defect and fails loudly; the
	// coordinator never guesses a stage.
	ErrCodeStageDecisionInvalid = types.STAGE_DECISION_INVALID

	// ErrCodeTurnCancelled marks a coordination turn ended by context
	// cancellation before any state became visible.
	ErrCodeTurnCancelled = types.TURN_CANCELLED
)

// NewStageDecisionError creates an error for a decision naming a stage
// the coordinator does not know.
func NewStageDecisionError(stage types.Stage) *types.CortexError {
	return types.NewError(ErrCodeStageDecisionInvalid,
		fmt.Sprintf("decision names unregistered stage: %s", stage))
}

// NewTurnCancelledError creates an error for a cancelled turn.
func NewTurnCancelledError(cause error) *types.CortexError {
	return types.WrapError(ErrCodeTurnCancelled, "coordination turn cancelled", cause)
}
