package knowledge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxos/cortex/internal/types"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	store, err := NewSqliteStore(filepath.Join(t.TempDir(), "knowledge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSqliteStore_StoreAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "user drinks coffee in the morning", map[string]any{"type": "preference"})
	require.NoError(t, err)
	require.False(t, entry.ID.IsZero())
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)

	loaded, err := store.Load(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, loaded.ID)
	assert.Equal(t, "user drinks coffee in the morning", loaded.Content)
	assert.Equal(t, "preference", loaded.Context["type"])
	assert.True(t, loaded.CreatedAt.Equal(loaded.UpdatedAt))
}

func TestSqliteStore_StoreEmptyContent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Store(context.Background(), "   ", nil)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.VALIDATION_FAILED))
}

func TestSqliteStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), types.NewID())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.NOT_FOUND))
}

func TestSqliteStore_PartialUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "original content", map[string]any{"type": "fact", "topic": "beverages"})
	require.NoError(t, err)

	// Content-only update leaves context unchanged.
	newContent := "revised content"
	updated, err := store.Update(ctx, entry.ID, UpdateRequest{Content: &newContent})
	require.NoError(t, err)
	assert.Equal(t, "revised content", updated.Content)
	assert.Equal(t, "fact", updated.Context["type"])
	assert.Equal(t, "beverages", updated.Context["topic"])
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	// Context-only update leaves content unchanged.
	updated, err = store.Update(ctx, entry.ID, UpdateRequest{Context: map[string]any{"type": "preference"}})
	require.NoError(t, err)
	assert.Equal(t, "revised content", updated.Content)
	assert.Equal(t, "preference", updated.Context["type"])
	assert.NotContains(t, updated.Context, "topic")

	loaded, err := store.Load(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Content, loaded.Content)
}

func TestSqliteStore_UpdateEmptyRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "user drinks coffee", nil)
	require.NoError(t, err)

	_, err = store.Update(ctx, entry.ID, UpdateRequest{})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.VALIDATION_FAILED))

	// A history-only request is still empty.
	_, err = store.Update(ctx, entry.ID, UpdateRequest{PreserveHistory: true})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.VALIDATION_FAILED))

	loaded, err := store.Load(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "user drinks coffee", loaded.Content)
}

func TestSqliteStore_UpdateNotFound(t *testing.T) {
	store := newTestStore(t)

	content := "anything"
	_, err := store.Update(context.Background(), types.NewID(), UpdateRequest{Content: &content})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.NOT_FOUND))
}

func TestSqliteStore_UpdateBumpsTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "user drinks coffee in the morning", nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	newContent := "user switched to tea"
	updated, err := store.Update(ctx, entry.ID, UpdateRequest{Content: &newContent})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(entry.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(entry.CreatedAt))
}

func TestSqliteStore_PreserveHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "first version", map[string]any{"type": "fact"})
	require.NoError(t, err)

	second := "second version"
	_, err = store.Update(ctx, entry.ID, UpdateRequest{Content: &second, PreserveHistory: true})
	require.NoError(t, err)

	superseded, err := store.Supersede(ctx, entry.ID, "third version", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "third version", superseded.Content)
	assert.EqualValues(t, 2, superseded.Context["supersedes_rev"])

	history, err := store.History(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second version", history[0].Content)
	assert.Equal(t, 2, history[0].Rev)
	assert.Equal(t, "first version", history[1].Content)
	assert.Equal(t, 1, history[1].Rev)
}

func TestSqliteStore_NoHistoryWithoutFlag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "only version", nil)
	require.NoError(t, err)

	next := "next version"
	_, err = store.Update(ctx, entry.ID, UpdateRequest{Content: &next})
	require.NoError(t, err)

	history, err := store.History(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSqliteStore_ListAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Store(ctx, "first entry", nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := store.Store(ctx, "second entry", nil)
	require.NoError(t, err)

	entries, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Most recently updated first.
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestSqliteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.Store(ctx, "to be removed", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, entry.ID))

	_, err = store.Load(ctx, entry.ID)
	assert.True(t, types.HasCode(err, types.NOT_FOUND))

	err = store.Delete(ctx, entry.ID)
	assert.True(t, types.HasCode(err, types.NOT_FOUND))
}

func TestSqliteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.db")
	ctx := context.Background()

	store, err := NewSqliteStore(path)
	require.NoError(t, err)
	entry, err := store.Store(ctx, "durable fact", map[string]any{"type": "fact"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSqliteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "durable fact", loaded.Content)
}

func TestSqliteStore_ClosedStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.Store(context.Background(), "content", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.NewError(types.STORE_IO_FAILED, "")))
}

func TestSqliteStore_Health(t *testing.T) {
	store := newTestStore(t)

	status := store.Health(context.Background())
	assert.True(t, status.IsHealthy())

	store.Close()
	status = store.Health(context.Background())
	assert.True(t, status.IsUnhealthy())
}
