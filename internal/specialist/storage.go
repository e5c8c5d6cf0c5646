package specialist

import (
	"fmt"
	"strings"

	"github.com/praxos/cortex/internal/llm"
)

// StorageAction classifies what should happen to the knowledge store in
// response to an observation.
type StorageAction string

const (
	ActionNone      StorageAction = "none"
	ActionCreate    StorageAction = "create"
	ActionUpdate    StorageAction = "update"
	ActionSupersede StorageAction = "supersede"
	ActionCorrect   StorageAction = "correct"
	ActionReconcile StorageAction = "reconcile_conflict"
)

// IsValid reports whether the action is a known value.
func (a StorageAction) IsValid() bool {
	switch a {
	case ActionNone, ActionCreate, ActionUpdate, ActionSupersede, ActionCorrect, ActionReconcile:
		return true
	default:
		return false
	}
}

// requiresTarget reports whether the action addresses an existing entry.
func (a StorageAction) requiresTarget() bool {
	switch a {
	case ActionUpdate, ActionSupersede, ActionCorrect, ActionReconcile:
		return true
	default:
		return false
	}
}

// StorageOperation is one classified knowledge mutation. Every operation
// carries a justification; an unexplained write is a schema violation.
type StorageOperation struct {
	Action          StorageAction  `json:"action"`
	EntryID         string         `json:"entry_id,omitempty"`
	Content         string         `json:"content,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	PreserveHistory bool           `json:"preserve_history,omitempty"`
	Justification   string         `json:"justification"`
}

// Validate checks one operation's contract.
func (op StorageOperation) Validate() error {
	if !op.Action.IsValid() {
		return fmt.Errorf("unknown storage action: %s", op.Action)
	}
	if strings.TrimSpace(op.Justification) == "" {
		return fmt.Errorf("storage action %s requires a justification", op.Action)
	}
	if op.Action.requiresTarget() && strings.TrimSpace(op.EntryID) == "" {
		return fmt.Errorf("storage action %s requires an entry_id", op.Action)
	}
	if op.Action != ActionNone && strings.TrimSpace(op.Content) == "" {
		return fmt.Errorf("storage action %s requires content", op.Action)
	}
	return nil
}

// StorageResult is the storage specialist's classification of an
// observation into zero or more knowledge mutations.
type StorageResult struct {
	Operations []StorageOperation `json:"operations"`
	Reasoning  string             `json:"reasoning"`
}

// Validate checks the result contract.
func (r *StorageResult) Validate() error {
	if strings.TrimSpace(r.Reasoning) == "" {
		return fmt.Errorf("storage result requires reasoning")
	}
	for i, op := range r.Operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

const storageInstructions = `You are a knowledge storage specialist. Given the current workspace,
retrieved knowledge, and a new observation, classify what the knowledge
store should do. For each piece of storable information emit one
operation:

- "none": the observation adds nothing durable.
- "create": store a new fact (no matching entry exists).
- "update": revise an existing entry's content or context.
- "supersede": replace an existing entry whose fact is now obsolete;
  set preserve_history true so the prior state is kept.
- "correct": fix an entry that was stored wrong (preserve_history true).
- "reconcile_conflict": two retrieved entries contradict; emit the
  merged truth targeting the entry to keep.

Prefer revising an existing entry over creating a near-duplicate. Every
operation needs a one-sentence justification.

Respond with JSON only.`

var storageSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"operations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type": "string",
						"enum": []string{"none", "create", "update", "supersede", "correct", "reconcile_conflict"},
					},
					"entry_id":         map[string]any{"type": "string"},
					"content":          map[string]any{"type": "string"},
					"context":          map[string]any{"type": "object"},
					"preserve_history": map[string]any{"type": "boolean"},
					"justification":    map[string]any{"type": "string"},
				},
				"required": []string{"action", "justification"},
			},
		},
		"reasoning": map[string]any{"type": "string"},
	},
	"required": []string{"operations", "reasoning"},
}

// NewStorageSpecialist creates the storage-classification specialist.
func NewStorageSpecialist(provider llm.Provider, opts ...Option) *Task {
	return NewTask("storage", storageInstructions, storageSchema,
		func() Result { return &StorageResult{} }, provider, opts...)
}
