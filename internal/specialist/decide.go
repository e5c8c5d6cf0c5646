package specialist

import (
	"fmt"
	"strings"

	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/types"
)

// DecisionResult is the decision step's output: which stage the
// coordinator runs next, or a terminal verdict. The coordinator checks
// the named stage against its registry before acting on it.
type DecisionResult struct {
	NextStage   string `json:"next_stage"`
	Reset       bool   `json:"reset,omitempty"`
	Explanation string `json:"explanation"`
}

// Validate checks the result contract.
func (r *DecisionResult) Validate() error {
	if strings.TrimSpace(r.NextStage) == "" {
		return fmt.Errorf("decision requires a next_stage")
	}
	if strings.TrimSpace(r.Explanation) == "" {
		return fmt.Errorf("decision requires an explanation")
	}
	return nil
}

// Decision converts the result into the coordinator's control signal.
func (r *DecisionResult) Decision() *types.StageDecision {
	return &types.StageDecision{
		NextStage:   types.Stage(r.NextStage),
		Reset:       r.Reset,
		Explanation: r.Explanation,
	}
}

const decideInstructionsTemplate = `You are the coordination decision step. Given the current workspace and
the outcome of the stage that just ran, choose what happens next.

Available stages: %s
Terminal verdicts: "solved" (the task is complete), "blocked" (progress
is impossible without intervention), "needs_input" (the user must answer
something first).

You may revisit a stage that already ran if new information warrants it,
for example re-running retrieval after integration surfaced a gap. Do
not loop on a stage that is making no progress; prefer a terminal
verdict with an honest explanation.

Respond with JSON only.`

var decideSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"next_stage": map[string]any{
			"type":        "string",
			"description": "a registered stage name or a terminal verdict",
		},
		"reset": map[string]any{
			"type":        "boolean",
			"description": "true when the workspace should be reset before the next stage",
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "short justification for the choice",
		},
	},
	"required": []string{"next_stage", "explanation"},
}

// NewDecisionStep creates the decision specialist. The registered stage
// names are rendered into its instruction so it only chooses from real
// options.
func NewDecisionStep(provider llm.Provider, stages []string, opts ...Option) *Task {
	instructions := fmt.Sprintf(decideInstructionsTemplate, strings.Join(stages, ", "))
	return NewTask("decide", instructions, decideSchema,
		func() Result { return &DecisionResult{} }, provider, opts...)
}
