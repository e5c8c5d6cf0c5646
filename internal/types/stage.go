package types

import (
	"fmt"
	"strings"
)

// Stage identifies a named step in a coordination cycle. The set of
// non-terminal stages is open: deployments register their own stages with
// the coordinator. Terminal stages are fixed sentinels.
type Stage string

// Default non-terminal stages. Concrete deployments may register additional
// stages (hypothesis, inquiry, validation, ...) without changing the
// coordinator's mechanics.
const (
	StageAnalyze   Stage = "analyze"
	StageRetrieve  Stage = "retrieve"
	StageIntegrate Stage = "integrate"
)

// Terminal sentinels. These end a coordination cycle and return control to
// the caller.
const (
	StageSolved     Stage = "solved"
	StageBlocked    Stage = "blocked"
	StageNeedsInput Stage = "needs_input"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// IsTerminal reports whether the stage ends the coordination cycle.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageSolved, StageBlocked, StageNeedsInput:
		return true
	default:
		return false
	}
}

// StageDecision is the coordinator's per-turn control signal. Exactly one
// decision is produced per turn; it names either a registered stage or a
// terminal sentinel.
type StageDecision struct {
	// NextStage is the stage to run next, or a terminal sentinel.
	NextStage Stage `json:"next_stage"`

	// Reset indicates a full context reset is required before the next
	// stage runs.
	Reset bool `json:"reset,omitempty"`

	// Explanation is a human-readable justification for the choice.
	// Required for terminal decisions.
	Explanation string `json:"explanation,omitempty"`
}

// Validate checks that the decision is properly formed.
func (d *StageDecision) Validate() error {
	if d == nil {
		return fmt.Errorf("stage decision is nil")
	}
	if strings.TrimSpace(string(d.NextStage)) == "" {
		return fmt.Errorf("next_stage is required")
	}
	if d.NextStage.IsTerminal() && strings.TrimSpace(d.Explanation) == "" {
		return fmt.Errorf("explanation is required for terminal stage %q", d.NextStage)
	}
	return nil
}

// IsTerminal reports whether the decision ends the coordination cycle.
func (d *StageDecision) IsTerminal() bool {
	return d != nil && d.NextStage.IsTerminal()
}

// String returns a human-readable representation of the decision.
func (d *StageDecision) String() string {
	if d == nil {
		return "<nil decision>"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("StageDecision{Next: %s", d.NextStage))
	if d.Reset {
		sb.WriteString(", Reset: true")
	}
	if d.Explanation != "" {
		sb.WriteString(fmt.Sprintf(", Explanation: %s", d.Explanation))
	}
	sb.WriteString("}")
	return sb.String()
}

// TerminalBlocked builds a terminal blocked decision with the given
// explanation.
func TerminalBlocked(explanation string) *StageDecision {
	return &StageDecision{NextStage: StageBlocked, Explanation: explanation}
}

// TerminalSolved builds a terminal solved decision with the given
// explanation.
func TerminalSolved(explanation string) *StageDecision {
	return &StageDecision{NextStage: StageSolved, Explanation: explanation}
}
