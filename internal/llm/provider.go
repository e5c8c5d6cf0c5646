package llm

import (
	"context"

	"github.com/praxos/cortex/internal/types"
)

// Provider is the completion-service contract. It provides a unified
// abstraction over different LLM backends (Anthropic Claude, OpenAI GPT,
// local models via ollama).
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai").
	Name() string

	// Complete sends a completion request and blocks until the full
	// response is available. This is the only path orchestration uses.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and emits partial chunks until a
	// final chunk carrying the assembled response. The channel is closed
	// when streaming completes or fails.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) types.HealthStatus
}
