package similarity

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/praxos/cortex/internal/config"
	"github.com/praxos/cortex/internal/types"
)

// LangchainEmbedder adapts a langchaingo embedding client to the Embedder
// contract, widening float32 vectors to float64.
type LangchainEmbedder struct {
	inner embeddings.Embedder
	model string
	dims  int
}

// NewEmbedder creates an embedder from configuration.
func NewEmbedder(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dims), nil
	case "openai":
		client, err := openai.New(openai.WithEmbeddingModel(cfg.Model))
		if err != nil {
			return nil, NewEmbeddingError("failed to create openai embedding client", err)
		}
		return NewLangchainEmbedder(client, cfg.Model, cfg.Dims)
	case "ollama":
		client, err := ollama.New(ollama.WithModel(cfg.Model))
		if err != nil {
			return nil, NewEmbeddingError("failed to create ollama embedding client", err)
		}
		return NewLangchainEmbedder(client, cfg.Model, cfg.Dims)
	default:
		return nil, types.NewError(ErrCodeEmbeddingFailed,
			fmt.Sprintf("unknown embedder provider: %s", cfg.Provider))
	}
}

// NewLangchainEmbedder wraps a langchaingo embedding client.
func NewLangchainEmbedder(client embeddings.EmbedderClient, model string, dims int) (*LangchainEmbedder, error) {
	inner, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, NewEmbeddingError("failed to create embedder", err)
	}
	return &LangchainEmbedder{inner: inner, model: model, dims: dims}, nil
}

// Embed generates an embedding for a single text.
func (e *LangchainEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, NewEmbeddingError("failed to embed text", err)
	}
	return widen(vec), nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (e *LangchainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, NewEmbeddingError("failed to embed batch", err)
	}
	out := make([][]float64, len(vecs))
	for i, vec := range vecs {
		out[i] = widen(vec)
	}
	return out, nil
}

// Dimensions returns the configured embedding dimensionality.
func (e *LangchainEmbedder) Dimensions() int {
	return e.dims
}

// Model returns the embedding model name.
func (e *LangchainEmbedder) Model() string {
	return e.model
}

// Health probes the backend with a minimal embedding request.
func (e *LangchainEmbedder) Health(ctx context.Context) types.HealthStatus {
	if _, err := e.inner.EmbedQuery(ctx, "ping"); err != nil {
		return types.Unhealthy(fmt.Sprintf("embedding backend unreachable: %v", err))
	}
	return types.Healthy(fmt.Sprintf("embedder operational (model: %s)", e.model))
}

func widen(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
