package knowledge

import (
	"context"

	"github.com/praxos/cortex/internal/types"
)

// Store is the durable knowledge record store. All operations are atomic
// per entry; no multi-entry transactions are offered.
//
// The store does not own embedding generation: after a successful Store,
// Update, or Supersede the caller is responsible for updating the
// similarity index, in that order, so every indexed id resolves here.
type Store interface {
	// Store persists a new entry. Fails with a validation error on
	// empty content.
	Store(ctx context.Context, content string, context map[string]any) (*Entry, error)

	// Load returns the entry with the given id, or a not-found error.
	Load(ctx context.Context, id types.ID) (*Entry, error)

	// Update applies a partial update. Omitted fields are unchanged; a
	// request omitting every field fails with a validation error.
	// Fails with a not-found error if the id is absent.
	Update(ctx context.Context, id types.ID, req UpdateRequest) (*Entry, error)

	// Supersede replaces an entry's content wholesale. When
	// preserveHistory is set the prior revision is written to the
	// history log and the new context is annotated with the revision it
	// supersedes.
	Supersede(ctx context.Context, id types.ID, content string, context map[string]any, preserveHistory bool) (*Entry, error)

	// ListAll returns every entry, most recently updated first.
	ListAll(ctx context.Context) ([]Entry, error)

	// Delete removes an entry. Fails with a not-found error if absent.
	Delete(ctx context.Context, id types.ID) error

	// History returns preserved prior revisions of an entry, newest
	// first. Entries never updated with history preservation return an
	// empty slice.
	History(ctx context.Context, id types.ID) ([]Revision, error)

	// Health reports the store's operational status.
	Health(ctx context.Context) types.HealthStatus

	// Close releases underlying resources.
	Close() error
}
