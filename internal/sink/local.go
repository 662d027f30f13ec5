package sink

import (
	"context"
	"time"

	"github.com/consentlab/studyctl/internal/event"
	"github.com/consentlab/studyctl/internal/store"
)

// Local appends records to the store's events table. Used when no
// remote endpoint is configured, so a standalone deployment still
// produces a reviewable interaction log.
type Local struct {
	store *store.Store
	now   func() time.Time
}

// NewLocal creates a sink over the given store.
func NewLocal(st *store.Store) *Local {
	return &Local{store: st, now: time.Now}
}

// Emit writes the record to the local events table.
func (l *Local) Emit(ctx context.Context, rec event.Record) error {
	return l.store.AppendEvent(ctx, rec, l.now())
}
