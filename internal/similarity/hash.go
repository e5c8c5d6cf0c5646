package similarity

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/praxos/cortex/internal/types"
)

// HashEmbedder is a deterministic, dependency-free embedder for tests and
// offline development. Tokens are hashed into a fixed-size bag-of-words
// vector and L2-normalized, so texts sharing tokens have positive cosine
// similarity. It is not a substitute for a learned embedding model.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

// Embed generates a deterministic embedding for the text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewEmbeddingError("embedding cancelled", err)
	}

	vec := make([]float64, e.dims)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()
		// Sign bit from the hash spreads tokens across both directions.
		sign := 1.0
		if sum&1 == 1 {
			sign = -1.0
		}
		vec[int(sum%uint64(e.dims))] += sign
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
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
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// Model returns the embedder's model name.
func (e *HashEmbedder) Model() string {
	return "hash-bow"
}

// Health always reports healthy.
func (e *HashEmbedder) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("hash embedder operational")
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}
