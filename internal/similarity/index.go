package similarity

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/praxos/cortex/internal/knowledge"
	"github.com/praxos/cortex/internal/types"
)

// DefaultLimit caps result counts when the caller does not specify one.
// Retrieval cost grows with every match fed into a prompt, so the default
// stays small.
const DefaultLimit = 5

// Match is the ephemeral result of one similarity query. Matches are
// recomputed per query and never persisted. Every match id resolves via
// the knowledge store; callers maintain that ordering guarantee by
// indexing only after a successful store.
type Match struct {
	ID        types.ID       `json:"id"`
	Score     float64        `json:"score"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Index is a vector-embedding index over knowledge entries supporting
// nearest-neighbor search with optional metadata filters.
type Index interface {
	// Add indexes a knowledge entry. Adding an already-indexed id
	// replaces its vector and metadata.
	Add(ctx context.Context, entry knowledge.Entry) error

	// Update re-indexes an entry after its content or context changed.
	Update(ctx context.Context, entry knowledge.Entry) error

	// Delete removes an entry from the index. Deleting an absent id is
	// a no-op.
	Delete(ctx context.Context, id types.ID) error

	// FindSimilar returns up to limit matches for the query text,
	// ordered by descending score with ties broken by most recent
	// updated_at. A nil filter matches everything. An empty index
	// yields an empty slice, never an error. limit <= 0 selects
	// DefaultLimit.
	FindSimilar(ctx context.Context, query string, limit int, filter Filter) ([]Match, error)

	// Health reports the index's operational status.
	Health(ctx context.Context) types.HealthStatus

	// Close releases underlying resources.
	Close() error
}

// scoreFromVectors maps cosine similarity to the [0,1] match score,
// 1 meaning identical direction.
func scoreFromVectors(a, b []float64) float64 {
	score := cosineSimilarity(a, b)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// cosineSimilarity computes (a · b) / (||a|| * ||b||). Zero vectors and
// mismatched lengths score zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortMatches orders matches by descending score, breaking ties by most
// recent updated_at.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
