package specialist

import (
	"fmt"
	"strings"

	"github.com/praxos/cortex/internal/llm"
)

// SectionUpdate replaces the content of one workspace section.
type SectionUpdate struct {
	Section string `json:"section"`
	Content string `json:"content"`
}

// IntegrationResult is the context-integration specialist's output: the
// workspace sections to rewrite so new information and retrieved
// knowledge are merged without redundancy, plus the ids of knowledge
// entries the merged context now references. Sections not named are left
// untouched.
type IntegrationResult struct {
	Updates       []SectionUpdate `json:"updates"`
	KnowledgeRefs []string        `json:"knowledge_refs,omitempty"`
	Reasoning     string          `json:"reasoning"`
}

// Validate checks the result contract.
func (r *IntegrationResult) Validate() error {
	if strings.TrimSpace(r.Reasoning) == "" {
		return fmt.Errorf("integration result requires reasoning")
	}
	for _, ref := range r.KnowledgeRefs {
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("knowledge_refs contains an empty id")
		}
	}
	seen := make(map[string]bool, len(r.Updates))
	for i, u := range r.Updates {
		if strings.TrimSpace(u.Section) == "" {
			return fmt.Errorf("update %d: section name cannot be empty", i)
		}
		if seen[u.Section] {
			return fmt.Errorf("update %d: duplicate section %s", i, u.Section)
		}
		seen[u.Section] = true
	}
	return nil
}

const integrateInstructions = `You are a context integration specialist. Given the current workspace,
retrieved knowledge, and a new message, rewrite the workspace sections
that should change so the document stays the single accurate picture of
the situation.

Rules:
- Merge new information with existing section content; do not repeat
  facts already present.
- Keep relationships between facts explicit (who, what, since when).
- Only name sections you are changing; unnamed sections are preserved.
- List the ids of retrieved knowledge entries the merged context relies
  on in knowledge_refs.
- Keep each section brief enough to re-read at a glance.

Respond with JSON only.`

var integrateSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"updates": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"section": map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"section", "content"},
			},
		},
		"knowledge_refs": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "ids of knowledge entries the merged context references",
		},
		"reasoning": map[string]any{"type": "string"},
	},
	"required": []string{"updates", "reasoning"},
}

// NewIntegrationSpecialist creates the context-integration specialist.
func NewIntegrationSpecialist(provider llm.Provider, opts ...Option) *Task {
	return NewTask("integrate", integrateInstructions, integrateSchema,
		func() Result { return &IntegrationResult{} }, provider, opts...)
}
