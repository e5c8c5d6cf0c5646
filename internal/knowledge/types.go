package knowledge

import (
	"strings"
	"time"

	"github.com/praxos/cortex/internal/types"
)

// Entry is a durable knowledge record with open metadata and timestamps.
// The identifier is immutable once assigned.
type Entry struct {
	ID        types.ID       `json:"id"`
	Content   string         `json:"content"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewEntry creates an Entry with a fresh ID and the current timestamp for
// both created and updated.
func NewEntry(content string, context map[string]any) *Entry {
	now := time.Now().UTC()
	return &Entry{
		ID:        types.NewID(),
		Content:   content,
		Context:   context,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the entry invariants: non-empty id and content, and
// updated_at never before created_at.
func (e *Entry) Validate() error {
	if e.ID.IsZero() {
		return NewEntryInvalidError("entry id cannot be empty")
	}
	if strings.TrimSpace(e.Content) == "" {
		return NewEntryInvalidError("entry content cannot be empty")
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		return NewEntryInvalidError("entry updated_at precedes created_at")
	}
	return nil
}

// Revision is a preserved prior state of an entry, written when an update
// or supersede runs with history preservation.
type Revision struct {
	EntryID    types.ID       `json:"entry_id"`
	Rev        int            `json:"rev"`
	Content    string         `json:"content"`
	Context    map[string]any `json:"context,omitempty"`
	ReplacedAt time.Time      `json:"replaced_at"`
}

// UpdateRequest describes a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	// Content replaces the entry content when non-nil.
	Content *string

	// Context replaces the entry context when non-nil.
	Context map[string]any

	// PreserveHistory writes the prior revision to the history log
	// before mutating. Always honored, never best-effort.
	PreserveHistory bool
}

// IsEmpty reports whether the request would change nothing.
func (r UpdateRequest) IsEmpty() bool {
	return r.Content == nil && r.Context == nil
}
