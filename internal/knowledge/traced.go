package knowledge

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/praxos/cortex/internal/types"
)

// TracedStore wraps a Store with OpenTelemetry tracing. Spans are named
// "cortex.knowledge.{operation}" and carry the entry id where applicable.
type TracedStore struct {
	inner  Store
	tracer trace.Tracer
}

// NewTracedStore wraps the given store with tracing.
func NewTracedStore(inner Store, tracer trace.Tracer) *TracedStore {
	return &TracedStore{inner: inner, tracer: tracer}
}

// Store persists a new entry.
func (t *TracedStore) Store(ctx context.Context, content string, entryContext map[string]any) (*Entry, error) {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.store")
	defer span.End()

	entry, err := t.inner.Store(ctx, content, entryContext)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("knowledge.entry_id", entry.ID.String()))
	return entry, nil
}

// Load returns an entry by id.
func (t *TracedStore) Load(ctx context.Context, id types.ID) (*Entry, error) {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.load",
		trace.WithAttributes(attribute.String("knowledge.entry_id", id.String())))
	defer span.End()

	entry, err := t.inner.Load(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return entry, nil
}

// Update applies a partial update.
func (t *TracedStore) Update(ctx context.Context, id types.ID, req UpdateRequest) (*Entry, error) {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.update",
		trace.WithAttributes(
			attribute.String("knowledge.entry_id", id.String()),
			attribute.Bool("knowledge.preserve_history", req.PreserveHistory),
		))
	defer span.End()

	entry, err := t.inner.Update(ctx, id, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return entry, nil
}

// Supersede replaces an entry's content wholesale.
func (t *TracedStore) Supersede(ctx context.Context, id types.ID, content string, entryContext map[string]any, preserveHistory bool) (*Entry, error) {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.supersede",
		trace.WithAttributes(
			attribute.String("knowledge.entry_id", id.String()),
			attribute.Bool("knowledge.preserve_history", preserveHistory),
		))
	defer span.End()

	entry, err := t.inner.Supersede(ctx, id, content, entryContext, preserveHistory)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return entry, nil
}

// ListAll returns every entry.
func (t *TracedStore) ListAll(ctx context.Context) ([]Entry, error) {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.list_all")
	defer span.End()

	entries, err := t.inner.ListAll(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("knowledge.entry_count", len(entries)))
	return entries, nil
}

// Delete removes an entry by id.
func (t *TracedStore) Delete(ctx context.Context, id types.ID) error {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.delete",
		trace.WithAttributes(attribute.String("knowledge.entry_id", id.String())))
	defer span.End()

	if err := t.inner.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// History returns preserved prior revisions.
func (t *TracedStore) History(ctx context.Context, id types.ID) ([]Revision, error) {
	ctx, span := t.tracer.Start(ctx, "cortex.knowledge.history",
		trace.WithAttributes(attribute.String("knowledge.entry_id", id.String())))
	defer span.End()

	revisions, err := t.inner.History(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return revisions, nil
}

// Health reports the inner store's status.
func (t *TracedStore) Health(ctx context.Context) types.HealthStatus {
	return t.inner.Health(ctx)
}

// Close releases the inner store.
func (t *TracedStore) Close() error {
	return t.inner.Close()
}
