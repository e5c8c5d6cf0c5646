package specialist

import (
	"fmt"
	"strings"

	"github.com/praxos/cortex/internal/llm"
)

// BoundaryResult is the context-boundary detector's verdict: whether the
// incoming message starts a new episode, and which workspace sections to
// carry across the reset.
type BoundaryResult struct {
	NewEpisode       bool     `json:"new_episode"`
	PreserveSections []string `json:"preserve_sections,omitempty"`
	Reasoning        string   `json:"reasoning"`
}

// Validate checks the result contract.
func (r *BoundaryResult) Validate() error {
	if strings.TrimSpace(r.Reasoning) == "" {
		return fmt.Errorf("boundary result requires reasoning")
	}
	for _, name := range r.PreserveSections {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("preserve_sections contains an empty name")
		}
	}
	if !r.NewEpisode && len(r.PreserveSections) > 0 {
		return fmt.Errorf("preserve_sections only applies to a new episode")
	}
	return nil
}

const boundaryInstructions = `You are a context boundary detector. Given the current workspace and a
new incoming message, decide whether the message starts a new episode
(an unrelated topic or task) or continues the current one.

If it starts a new episode, list the workspace section names whose
content remains genuinely relevant and should be preserved across the
reset. Be conservative: preserving stale context pollutes future
reasoning, but dropping live context loses continuity.

Respond with JSON only.`

var boundarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"new_episode": map[string]any{
			"type":        "boolean",
			"description": "true when the message starts an unrelated episode",
		},
		"preserve_sections": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "workspace section names to carry across the reset",
		},
		"reasoning": map[string]any{
			"type":        "string",
			"description": "short justification for the verdict",
		},
	},
	"required": []string{"new_episode", "reasoning"},
}

// NewBoundaryDetector creates the boundary-detection specialist.
func NewBoundaryDetector(provider llm.Provider, opts ...Option) *Task {
	return NewTask("boundary", boundaryInstructions, boundarySchema,
		func() Result { return &BoundaryResult{} }, provider, opts...)
}
