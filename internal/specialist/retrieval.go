package specialist

import (
	"fmt"
	"strings"

	"github.com/praxos/cortex/internal/llm"
)

// RetrievalResult is the retrieval specialist's output: a similarity
// query formulated from the workspace and message, plus a ranking of any
// already-retrieved matches into primary and secondary relevance.
type RetrievalResult struct {
	Query     string   `json:"query"`
	Primary   []string `json:"primary,omitempty"`
	Secondary []string `json:"secondary,omitempty"`
	Reasoning string   `json:"reasoning"`
}

// Validate checks the result contract.
func (r *RetrievalResult) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("retrieval result requires a query")
	}
	if strings.TrimSpace(r.Reasoning) == "" {
		return fmt.Errorf("retrieval result requires reasoning")
	}
	seen := make(map[string]bool, len(r.Primary))
	for _, id := range r.Primary {
		seen[id] = true
	}
	for _, id := range r.Secondary {
		if seen[id] {
			return fmt.Errorf("match %s ranked both primary and secondary", id)
		}
	}
	return nil
}

const retrievalInstructions = `You are a knowledge retrieval specialist. Given the current workspace,
any knowledge matches already retrieved, and a new message, do two
things:

1. Formulate the single most useful similarity query for finding
   knowledge relevant to the message. Phrase it as the content you hope
   to find, not as a question.
2. If matches were provided, rank their ids into "primary" (directly
   relevant, should inform the response) and "secondary" (contextually
   useful). Omit irrelevant matches entirely.

Respond with JSON only.`

var retrievalSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "similarity query text",
		},
		"primary": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "ids of directly relevant matches",
		},
		"secondary": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "ids of contextually useful matches",
		},
		"reasoning": map[string]any{
			"type":        "string",
			"description": "short justification for the query and ranking",
		},
	},
	"required": []string{"query", "reasoning"},
}

// NewRetrievalSpecialist creates the retrieval specialist.
func NewRetrievalSpecialist(provider llm.Provider, opts ...Option) *Task {
	return NewTask("retrieval", retrievalInstructions, retrievalSchema,
		func() Result { return &RetrievalResult{} }, provider, opts...)
}
