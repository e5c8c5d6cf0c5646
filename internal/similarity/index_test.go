package similarity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxos/cortex/internal/knowledge"
	"github.com/praxos/cortex/internal/types"
)

// indexFactory lets the contract tests run against every Index
// implementation.
type indexFactory func(t *testing.T, embedder Embedder) Index

func memoryFactory(t *testing.T, embedder Embedder) Index {
	idx := NewMemoryIndex(embedder)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func sqliteFactory(t *testing.T, embedder Embedder) Index {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := NewSqliteIndex(path, embedder)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func runIndexContract(t *testing.T, factory indexFactory) {
	ctx := context.Background()

	t.Run("empty index yields empty slice", func(t *testing.T) {
		idx := factory(t, NewMockEmbedder(8))

		matches, err := idx.FindSimilar(ctx, "anything", 10, nil)
		require.NoError(t, err)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("ordering by descending score", func(t *testing.T) {
		embedder := NewMockEmbedder(4)
		embedder.SetVector("query", []float64{1, 0, 0, 0})
		embedder.SetVector("close", []float64{1, 0.2, 0, 0})
		embedder.SetVector("far", []float64{0.2, 1, 0, 0})
		embedder.SetVector("orthogonal", []float64{0, 0, 1, 0})

		idx := factory(t, embedder)
		var ids []types.ID
		for _, content := range []string{"far", "orthogonal", "close"} {
			entry := knowledge.NewEntry(content, nil)
			require.NoError(t, idx.Add(ctx, *entry))
			ids = append(ids, entry.ID)
		}

		matches, err := idx.FindSimilar(ctx, "query", 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, ids[2], matches[0].ID)
		assert.Equal(t, ids[0], matches[1].ID)
		assert.Equal(t, ids[1], matches[2].ID)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})

	t.Run("scores stay within unit interval", func(t *testing.T) {
		embedder := NewMockEmbedder(4)
		embedder.SetVector("query", []float64{1, 0, 0, 0})
		embedder.SetVector("opposite", []float64{-1, 0, 0, 0})
		embedder.SetVector("identical", []float64{1, 0, 0, 0})

		idx := factory(t, embedder)
		require.NoError(t, idx.Add(ctx, *knowledge.NewEntry("opposite", nil)))
		require.NoError(t, idx.Add(ctx, *knowledge.NewEntry("identical", nil)))

		matches, err := idx.FindSimilar(ctx, "query", 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
		assert.Equal(t, 0.0, matches[1].Score)
	})

	t.Run("ties broken by most recent update", func(t *testing.T) {
		embedder := NewMockEmbedder(4)
		embedder.SetVector("query", []float64{1, 0, 0, 0})
		embedder.SetVector("same text", []float64{1, 0, 0, 0})

		idx := factory(t, embedder)

		older := knowledge.NewEntry("same text", nil)
		older.UpdatedAt = older.CreatedAt
		require.NoError(t, idx.Add(ctx, *older))

		newer := knowledge.NewEntry("same text", nil)
		newer.CreatedAt = older.CreatedAt.Add(time.Second)
		newer.UpdatedAt = newer.CreatedAt
		require.NoError(t, idx.Add(ctx, *newer))

		matches, err := idx.FindSimilar(ctx, "query", 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, newer.ID, matches[0].ID)
		assert.Equal(t, older.ID, matches[1].ID)
	})

	t.Run("default limit applies when limit not positive", func(t *testing.T) {
		embedder := NewMockEmbedder(8)
		idx := factory(t, embedder)

		for i := 0; i < DefaultLimit+3; i++ {
			entry := knowledge.NewEntry("shared content words", map[string]any{"i": i})
			require.NoError(t, idx.Add(ctx, *entry))
		}

		matches, err := idx.FindSimilar(ctx, "shared content words", 0, nil)
		require.NoError(t, err)
		assert.Len(t, matches, DefaultLimit)

		matches, err = idx.FindSimilar(ctx, "shared content words", -1, nil)
		require.NoError(t, err)
		assert.Len(t, matches, DefaultLimit)
	})

	t.Run("filter narrows results", func(t *testing.T) {
		embedder := NewMockEmbedder(8)
		idx := factory(t, embedder)

		keep := knowledge.NewEntry("user prefers tea", map[string]any{"kind": "preference"})
		drop := knowledge.NewEntry("user prefers tea", map[string]any{"kind": "fact"})
		require.NoError(t, idx.Add(ctx, *keep))
		require.NoError(t, idx.Add(ctx, *drop))

		matches, err := idx.FindSimilar(ctx, "tea", 10, Eq("kind", "preference"))
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, keep.ID, matches[0].ID)
		assert.Equal(t, "preference", matches[0].Metadata["kind"])
	})

	t.Run("update replaces the vector for an id", func(t *testing.T) {
		embedder := NewMockEmbedder(4)
		embedder.SetVector("query", []float64{1, 0, 0, 0})
		embedder.SetVector("near", []float64{1, 0.1, 0, 0})
		embedder.SetVector("elsewhere", []float64{0, 0, 1, 0})

		idx := factory(t, embedder)
		entry := knowledge.NewEntry("near", nil)
		require.NoError(t, idx.Add(ctx, *entry))

		entry.Content = "elsewhere"
		entry.UpdatedAt = entry.UpdatedAt.Add(time.Second)
		require.NoError(t, idx.Update(ctx, *entry))

		matches, err := idx.FindSimilar(ctx, "query", 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, entry.ID, matches[0].ID)
		assert.Less(t, matches[0].Score, 0.5)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		embedder := NewMockEmbedder(8)
		idx := factory(t, embedder)

		entry := knowledge.NewEntry("ephemeral note", nil)
		require.NoError(t, idx.Add(ctx, *entry))
		require.NoError(t, idx.Delete(ctx, entry.ID))

		matches, err := idx.FindSimilar(ctx, "ephemeral note", 10, nil)
		require.NoError(t, err)
		assert.Empty(t, matches)

		// Deleting again is a no-op.
		assert.NoError(t, idx.Delete(ctx, entry.ID))
	})

	t.Run("invalid entry is rejected", func(t *testing.T) {
		idx := factory(t, NewMockEmbedder(8))

		entry := knowledge.NewEntry("", nil)
		err := idx.Add(ctx, *entry)
		require.Error(t, err)
		assert.True(t, types.HasCode(err, ErrCodeIndexInvalidRecord))
	})

	t.Run("health reports operational", func(t *testing.T) {
		idx := factory(t, NewMockEmbedder(8))
		status := idx.Health(ctx)
		assert.True(t, status.IsHealthy())
	})
}

func TestMemoryIndex(t *testing.T) {
	runIndexContract(t, memoryFactory)
}

func TestSqliteIndex(t *testing.T) {
	runIndexContract(t, sqliteFactory)
}

func TestSqliteIndexPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")
	embedder := NewMockEmbedder(8)

	idx, err := NewSqliteIndex(path, embedder)
	require.NoError(t, err)

	entry := knowledge.NewEntry("durable vector", map[string]any{"kind": "fact"})
	require.NoError(t, idx.Add(ctx, *entry))
	require.NoError(t, idx.Close())

	reopened, err := NewSqliteIndex(path, embedder)
	require.NoError(t, err)
	defer reopened.Close()

	matches, err := reopened.FindSimilar(ctx, "durable vector", 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, entry.ID, matches[0].ID)
	assert.Equal(t, "fact", matches[0].Metadata["kind"])
}

func TestSqliteIndexClosed(t *testing.T) {
	ctx := context.Background()
	idx, err := NewSqliteIndex(filepath.Join(t.TempDir(), "index.db"), NewMockEmbedder(8))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	err = idx.Add(ctx, *knowledge.NewEntry("late", nil))
	assert.True(t, types.HasCode(err, ErrCodeIndexFailed))

	_, err = idx.FindSimilar(ctx, "late", 5, nil)
	assert.True(t, types.HasCode(err, ErrCodeIndexSearchFailed))

	assert.False(t, idx.Health(ctx).IsHealthy())
	assert.NoError(t, idx.Close())
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	embedder := NewHashEmbedder(64)

	a, err := embedder.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	b, err := embedder.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Shared tokens give positive similarity; disjoint text does not.
	overlap, err := embedder.Embed(ctx, "a quick fox runs")
	require.NoError(t, err)
	assert.Greater(t, cosineSimilarity(a, overlap), 0.0)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float64{0.1, -2.5, 3.75, 0}
	decoded, err := decodeEmbedding(encodeEmbedding(vec), len(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeEmbedding([]byte{1, 2, 3}, 4)
	assert.Error(t, err)
}
