package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/praxos/cortex/internal/types"
)

// SqliteStore is a persistent knowledge store backed by SQLite. It is
// thread-safe; every operation is atomic per entry.
type SqliteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// NewSqliteStore opens (or creates) a knowledge store at the given path.
// WAL mode is enabled for better concurrency.
func NewSqliteStore(path string) (*SqliteStore, error) {
	if path == "" {
		return nil, NewEntryInvalidError("database path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewStoreIOError("failed to open knowledge database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreIOError("failed to ping knowledge database", err)
	}

	store := &SqliteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, NewStoreIOError("failed to initialize knowledge schema", err)
	}

	return store, nil
}

func (s *SqliteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			context    TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS entry_history (
			entry_id    TEXT NOT NULL,
			rev         INTEGER NOT NULL,
			content     TEXT NOT NULL,
			context     TEXT,
			replaced_at TIMESTAMP NOT NULL,
			PRIMARY KEY (entry_id, rev)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Store persists a new entry and returns it.
func (s *SqliteStore) Store(ctx context.Context, content string, entryContext map[string]any) (*Entry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewEntryInvalidError("content cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStoreIOError("knowledge store is closed", nil)
	}

	entry := NewEntry(content, entryContext)
	contextJSON, err := marshalContext(entry.Context)
	if err != nil {
		return nil, NewStoreIOError("failed to serialize entry context", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, content, context, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Content, contextJSON, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return nil, NewStoreIOError("failed to insert entry", err)
	}

	return entry, nil
}

// Load returns the entry with the given id.
func (s *SqliteStore) Load(ctx context.Context, id types.ID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreIOError("knowledge store is closed", nil)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, context, created_at, updated_at FROM entries WHERE id = ?`,
		id.String(),
	)
	return scanEntry(row, id)
}

// Update applies a partial update under a transaction.
func (s *SqliteStore) Update(ctx context.Context, id types.ID, req UpdateRequest) (*Entry, error) {
	if req.IsEmpty() {
		return nil, NewEntryInvalidError("update request changes nothing")
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return nil, NewEntryInvalidError("content cannot be updated to empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStoreIOError("knowledge store is closed", nil)
	}

	return s.mutate(ctx, id, req.PreserveHistory, func(entry *Entry, _ int) error {
		if req.Content != nil {
			entry.Content = *req.Content
		}
		if req.Context != nil {
			entry.Context = req.Context
		}
		return nil
	})
}

// Supersede replaces an entry's content wholesale. The new context is
// annotated with the revision it supersedes when history is preserved.
func (s *SqliteStore) Supersede(ctx context.Context, id types.ID, content string, entryContext map[string]any, preserveHistory bool) (*Entry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewEntryInvalidError("content cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStoreIOError("knowledge store is closed", nil)
	}

	return s.mutate(ctx, id, preserveHistory, func(entry *Entry, rev int) error {
		entry.Content = content
		if entryContext != nil {
			entry.Context = entryContext
		}
		if preserveHistory {
			if entry.Context == nil {
				entry.Context = make(map[string]any)
			}
			entry.Context["supersedes_rev"] = rev
		}
		return nil
	})
}

// mutate runs a read-modify-write cycle on one entry inside a transaction,
// writing the prior revision to history first when requested. Callers must
// hold the write lock.
func (s *SqliteStore) mutate(ctx context.Context, id types.ID, preserveHistory bool, apply func(entry *Entry, historyRev int) error) (*Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewStoreIOError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, content, context, created_at, updated_at FROM entries WHERE id = ?`,
		id.String(),
	)
	entry, err := scanEntry(row, id)
	if err != nil {
		return nil, err
	}

	rev := 0
	if preserveHistory {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entry_history WHERE entry_id = ?`, id.String(),
		).Scan(&rev); err != nil {
			return nil, NewStoreIOError("failed to count history revisions", err)
		}
		rev++

		priorContext, err := marshalContext(entry.Context)
		if err != nil {
			return nil, NewStoreIOError("failed to serialize prior context", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entry_history (entry_id, rev, content, context, replaced_at) VALUES (?, ?, ?, ?, ?)`,
			id.String(), rev, entry.Content, priorContext, time.Now().UTC(),
		); err != nil {
			return nil, NewStoreIOError("failed to write history revision", err)
		}
	}

	if err := apply(entry, rev); err != nil {
		return nil, err
	}
	entry.UpdatedAt = time.Now().UTC()
	if entry.UpdatedAt.Before(entry.CreatedAt) {
		entry.UpdatedAt = entry.CreatedAt
	}

	contextJSON, err := marshalContext(entry.Context)
	if err != nil {
		return nil, NewStoreIOError("failed to serialize entry context", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET content = ?, context = ?, updated_at = ? WHERE id = ?`,
		entry.Content, contextJSON, entry.UpdatedAt, id.String(),
	); err != nil {
		return nil, NewStoreIOError("failed to update entry", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, NewStoreIOError("failed to commit update", err)
	}

	return entry, nil
}

// ListAll returns every entry, most recently updated first.
func (s *SqliteStore) ListAll(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreIOError("knowledge store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, context, created_at, updated_at FROM entries ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, NewStoreIOError("failed to query entries", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var idStr string
		var contextJSON sql.NullString
		if err := rows.Scan(&idStr, &entry.Content, &contextJSON, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, NewStoreIOError("failed to scan entry", err)
		}
		entry.ID = types.ID(idStr)
		if entry.Context, err = unmarshalContext(contextJSON); err != nil {
			return nil, NewStoreIOError("failed to deserialize entry context", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreIOError("error iterating entries", err)
	}

	return entries, nil
}

// Delete removes an entry by id.
func (s *SqliteStore) Delete(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreIOError("knowledge store is closed", nil)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id.String())
	if err != nil {
		return NewStoreIOError("failed to delete entry", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return NewStoreIOError("failed to read delete result", err)
	}
	if affected == 0 {
		return NewEntryNotFoundError(id)
	}
	return nil
}

// History returns preserved prior revisions, newest first.
func (s *SqliteStore) History(ctx context.Context, id types.ID) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreIOError("knowledge store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, rev, content, context, replaced_at FROM entry_history WHERE entry_id = ? ORDER BY rev DESC`,
		id.String(),
	)
	if err != nil {
		return nil, NewStoreIOError("failed to query history", err)
	}
	defer rows.Close()

	revisions := make([]Revision, 0)
	for rows.Next() {
		var r Revision
		var idStr string
		var contextJSON sql.NullString
		if err := rows.Scan(&idStr, &r.Rev, &r.Content, &contextJSON, &r.ReplacedAt); err != nil {
			return nil, NewStoreIOError("failed to scan revision", err)
		}
		r.EntryID = types.ID(idStr)
		if r.Context, err = unmarshalContext(contextJSON); err != nil {
			return nil, NewStoreIOError("failed to deserialize revision context", err)
		}
		revisions = append(revisions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreIOError("error iterating revisions", err)
	}

	return revisions, nil
}

// Health reports the store's operational status.
func (s *SqliteStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.Unhealthy("knowledge store is closed")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("database ping failed: %v", err))
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return types.Degraded(fmt.Sprintf("failed to count entries: %v", err))
	}

	return types.Healthy(fmt.Sprintf("knowledge store operational with %d entries", count))
}

// Close releases the underlying database handle.
func (s *SqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanEntry(row *sql.Row, id types.ID) (*Entry, error) {
	var entry Entry
	var idStr string
	var contextJSON sql.NullString

	err := row.Scan(&idStr, &entry.Content, &contextJSON, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, NewEntryNotFoundError(id)
	}
	if err != nil {
		return nil, NewStoreIOError("failed to scan entry", err)
	}

	entry.ID = types.ID(idStr)
	if entry.Context, err = unmarshalContext(contextJSON); err != nil {
		return nil, NewStoreIOError("failed to deserialize entry context", err)
	}
	return &entry, nil
}

func marshalContext(context map[string]any) (sql.NullString, error) {
	if context == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(context)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalContext(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var context map[string]any
	if err := json.Unmarshal([]byte(raw.String), &context); err != nil {
		return nil, err
	}
	return context, nil
}
