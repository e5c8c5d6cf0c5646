package similarity

import (
	"context"
	"sync"

	"github.com/praxos/cortex/internal/types"
)

// MockEmbedder serves canned vectors for exact texts, falling back to a
// hash embedding for everything else. Tests use it to script precise
// similarity relationships.
type MockEmbedder struct {
	mu       sync.RWMutex
	canned   map[string][]float64
	fallback *HashEmbedder
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{
		canned:   make(map[string][]float64),
		fallback: NewHashEmbedder(dims),
	}
}

// SetVector scripts the vector returned for an exact text. The vector is
// normalized so cosine scores behave like real embeddings.
func (e *MockEmbedder) SetVector(text string, vec []float64) {
	normalized := make([]float64, len(vec))
	copy(normalized, vec)
	normalize(normalized)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.canned[text] = normalized
}

// Embed returns the scripted vector for the text, or a hash embedding.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.mu.RLock()
	vec, ok := e.canned[text]
	e.mu.RUnlock()
	if ok {
		return vec, nil
	}
	return e.fallback.Embed(ctx, text)
}

// EmbedBatch embeds multiple texts.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimensionality.
func (e *MockEmbedder) Dimensions() int {
	return e.fallback.Dimensions()
}

// Model returns the embedder's model name.
func (e *MockEmbedder) Model() string {
	return "mock"
}

// Health always reports healthy.
func (e *MockEmbedder) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock embedder operational")
}
