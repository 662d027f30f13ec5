package sink

import (
	"context"

	"github.com/consentlab/studyctl/internal/event"
)

// Sink appends one interaction record to an event log.
//
// Transport implementations (HTTP, Local) return delivery errors so
// the Async wrapper can log them; callers holding an Async sink never
// see an error and never block on delivery.
type Sink interface {
	Emit(ctx context.Context, rec event.Record) error
}
