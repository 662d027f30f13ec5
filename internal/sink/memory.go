package sink

import (
	"context"
	"sync"

	"github.com/consentlab/studyctl/internal/event"
)

// Memory captures records in order for tests and the scenario harness.
type Memory struct {
	mu      sync.Mutex
	records []event.Record
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Emit appends the record. Never fails.
func (m *Memory) Emit(_ context.Context, rec event.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything emitted so far.
func (m *Memory) Records() []event.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Reset discards captured records.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}
