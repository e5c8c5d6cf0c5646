package similarity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/praxos/cortex/internal/knowledge"
	"github.com/praxos/cortex/internal/types"
)

type memoryRecord struct {
	embedding []float64
	metadata  map[string]any
	updatedAt time.Time
}

// MemoryIndex is an in-memory similarity index using brute-force cosine
// search. Suitable for tests and small datasets; use SqliteIndex for
// durable deployments.
type MemoryIndex struct {
	mu       sync.RWMutex
	embedder Embedder
	records  map[types.ID]memoryRecord
}

// NewMemoryIndex creates an in-memory index over the given embedder.
func NewMemoryIndex(embedder Embedder) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		records:  make(map[types.ID]memoryRecord),
	}
}

// Add indexes a knowledge entry.
func (x *MemoryIndex) Add(ctx context.Context, entry knowledge.Entry) error {
	if err := entry.Validate(); err != nil {
		return types.WrapError(ErrCodeIndexInvalidRecord, "cannot index invalid entry", err)
	}

	embedding, err := x.embedder.Embed(ctx, entry.Content)
	if err != nil {
		return NewIndexError("failed to embed entry content", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.records[entry.ID] = memoryRecord{
		embedding: embedding,
		metadata:  entry.Context,
		updatedAt: entry.UpdatedAt,
	}
	return nil
}

// Update re-indexes an entry.
func (x *MemoryIndex) Update(ctx context.Context, entry knowledge.Entry) error {
	return x.Add(ctx, entry)
}

// Delete removes an entry from the index.
func (x *MemoryIndex) Delete(ctx context.Context, id types.ID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.records, id)
	return nil
}

// FindSimilar performs a brute-force cosine search.
func (x *MemoryIndex) FindSimilar(ctx context.Context, query string, limit int, filter Filter) ([]Match, error) {
	x.mu.RLock()
	empty := len(x.records) == 0
	x.mu.RUnlock()
	if empty {
		return []Match{}, nil
	}

	queryVec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewSearchError("failed to embed query", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]Match, 0, len(x.records))
	for id, rec := range x.records {
		if filter != nil && !filter.Matches(rec.metadata) {
			continue
		}
		matches = append(matches, Match{
			ID:        id,
			Score:     scoreFromVectors(queryVec, rec.embedding),
			Metadata:  rec.metadata,
			UpdatedAt: rec.updatedAt,
		})
	}

	sortMatches(matches)
	if n := effectiveLimit(limit); len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// Health reports the index's operational status.
func (x *MemoryIndex) Health(ctx context.Context) types.HealthStatus {
	x.mu.RLock()
	count := len(x.records)
	x.mu.RUnlock()
	return types.Healthy(fmt.Sprintf("memory index operational with %d records", count))
}

// Close clears the index.
func (x *MemoryIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.records = nil
	return nil
}
