package similarity

import (
	"context"

	"github.com/praxos/cortex/internal/types"
)

// Embedder generates embedding vectors from text content.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimensionality of embedding vectors.
	Dimensions() int

	// Model returns the name of the embedding model in use.
	Model() string

	// Health returns the health status of the embedder.
	Health(ctx context.Context) types.HealthStatus
}

// Embedder error codes
const (
	ErrCodeEmbeddingFailed    types.ErrorCode = "EMBEDDING_FAILED"
	ErrCodeIndexFailed        types.ErrorCode = "SIMILARITY_INDEX_FAILED"
	ErrCodeIndexSearchFailed  types.ErrorCode = "SIMILARITY_SEARCH_FAILED"
	ErrCodeIndexInvalidRecord types.ErrorCode = "SIMILARITY_INVALID_RECORD"
)

// NewEmbeddingError creates an error for failed embedding generation.
func NewEmbeddingError(message string, cause error) *types.CortexError {
	return types.WrapError(ErrCodeEmbeddingFailed, message, cause)
}

// NewIndexError creates an error for a failed index mutation.
func NewIndexError(message string, cause error) *types.CortexError {
	return types.WrapError(ErrCodeIndexFailed, message, cause)
}

// NewSearchError creates an error for a failed similarity search.
func NewSearchError(message string, cause error) *types.CortexError {
	return types.WrapError(ErrCodeIndexSearchFailed, message, cause)
}
