// Package journal records the outcome of every notification decision so
// operators can audit what was sent, suppressed, or lost.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidEntry reports an entry missing required fields.
var ErrInvalidEntry = errors.New("journal: invalid entry")

// Entry is one notification decision. ID and CreatedAt are assigned by
// the store on append.
type Entry struct {
	ID        string
	Kind      string
	Faction   string
	Handle    string
	Outcome   string
	Detail    string
	CreatedAt time.Time
}

// Store appends and queries notification journal entries.
type Store interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
