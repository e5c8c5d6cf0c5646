package similarity

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/praxos/cortex/internal/knowledge"
	"github.com/praxos/cortex/internal/types"
)

// SqliteIndex is a persistent similarity index backed by SQLite.
// Embeddings are stored as little-endian float64 BLOBs; search is
// brute-force cosine over all rows, which is adequate for the index sizes
// this system accumulates.
type SqliteIndex struct {
	mu       sync.RWMutex
	db       *sql.DB
	embedder Embedder
	dims     int
	closed   bool
}

// NewSqliteIndex opens (or creates) a persistent index at the given path.
func NewSqliteIndex(path string, embedder Embedder) (*SqliteIndex, error) {
	if path == "" {
		return nil, types.NewError(ErrCodeIndexFailed, "database path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewIndexError("failed to open index database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewIndexError("failed to ping index database", err)
	}

	idx := &SqliteIndex{db: db, embedder: embedder, dims: embedder.Dimensions()}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, NewIndexError("failed to initialize index schema", err)
	}
	return idx, nil
}

func (x *SqliteIndex) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS vectors (
			id         TEXT PRIMARY KEY,
			embedding  BLOB NOT NULL,
			metadata   TEXT,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := x.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create vectors table: %w", err)
	}
	return nil
}

// Add indexes a knowledge entry, replacing any prior vector for its id.
func (x *SqliteIndex) Add(ctx context.Context, entry knowledge.Entry) error {
	if err := entry.Validate(); err != nil {
		return types.WrapError(ErrCodeIndexInvalidRecord, "cannot index invalid entry", err)
	}

	embedding, err := x.embedder.Embed(ctx, entry.Content)
	if err != nil {
		return NewIndexError("failed to embed entry content", err)
	}
	if len(embedding) != x.dims {
		return types.NewError(ErrCodeIndexFailed,
			fmt.Sprintf("embedding dimensions mismatch: expected %d, got %d", x.dims, len(embedding)))
	}

	var metadataJSON []byte
	if entry.Context != nil {
		if metadataJSON, err = json.Marshal(entry.Context); err != nil {
			return NewIndexError("failed to serialize metadata", err)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return types.NewError(ErrCodeIndexFailed, "similarity index is closed")
	}

	_, err = x.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vectors (id, embedding, metadata, updated_at) VALUES (?, ?, ?, ?)`,
		entry.ID.String(), encodeEmbedding(embedding), metadataJSON, entry.UpdatedAt,
	)
	if err != nil {
		return NewIndexError("failed to insert vector", err)
	}
	return nil
}

// Update re-indexes an entry after a content or context change.
func (x *SqliteIndex) Update(ctx context.Context, entry knowledge.Entry) error {
	return x.Add(ctx, entry)
}

// Delete removes an entry from the index.
func (x *SqliteIndex) Delete(ctx context.Context, id types.ID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return types.NewError(ErrCodeIndexFailed, "similarity index is closed")
	}

	if _, err := x.db.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, id.String()); err != nil {
		return NewIndexError("failed to delete vector", err)
	}
	return nil
}

// FindSimilar performs a brute-force cosine search over all rows.
func (x *SqliteIndex) FindSimilar(ctx context.Context, query string, limit int, filter Filter) ([]Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, types.NewError(ErrCodeIndexSearchFailed, "similarity index is closed")
	}

	var count int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&count); err != nil {
		return nil, NewSearchError("failed to count vectors", err)
	}
	if count == 0 {
		return []Match{}, nil
	}

	queryVec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewSearchError("failed to embed query", err)
	}

	rows, err := x.db.QueryContext(ctx, `SELECT id, embedding, metadata, updated_at FROM vectors`)
	if err != nil {
		return nil, NewSearchError("failed to query vectors", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, count)
	for rows.Next() {
		var idStr string
		var blob []byte
		var metadataJSON sql.NullString
		var updatedAt time.Time

		if err := rows.Scan(&idStr, &blob, &metadataJSON, &updatedAt); err != nil {
			return nil, NewSearchError("failed to scan vector row", err)
		}

		embedding, err := decodeEmbedding(blob, x.dims)
		if err != nil {
			return nil, NewSearchError("failed to decode embedding", err)
		}

		var metadata map[string]any
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
				return nil, NewSearchError("failed to decode metadata", err)
			}
		}

		if filter != nil && !filter.Matches(metadata) {
			continue
		}

		matches = append(matches, Match{
			ID:        types.ID(idStr),
			Score:     scoreFromVectors(queryVec, embedding),
			Metadata:  metadata,
			UpdatedAt: updatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, NewSearchError("error iterating vector rows", err)
	}

	sortMatches(matches)
	if n := effectiveLimit(limit); len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// Health reports the index's operational status.
func (x *SqliteIndex) Health(ctx context.Context) types.HealthStatus {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return types.Unhealthy("similarity index is closed")
	}
	if err := x.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("database ping failed: %v", err))
	}

	var count int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&count); err != nil {
		return types.Degraded(fmt.Sprintf("failed to count vectors: %v", err))
	}
	return types.Healthy(fmt.Sprintf("sqlite index operational with %d vectors (dims: %d)", count, x.dims))
}

// Close releases the underlying database handle.
func (x *SqliteIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return nil
	}
	x.closed = true
	return x.db.Close()
}

// encodeEmbedding packs a float64 slice into a little-endian BLOB.
func encodeEmbedding(embedding []float64) []byte {
	buf := make([]byte, len(embedding)*8)
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding unpacks a little-endian BLOB into a float64 slice.
func decodeEmbedding(buf []byte, dims int) ([]float64, error) {
	if len(buf) != dims*8 {
		return nil, fmt.Errorf("invalid embedding length: expected %d bytes, got %d", dims*8, len(buf))
	}
	embedding := make([]float64, dims)
	for i := range embedding {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return embedding, nil
}
