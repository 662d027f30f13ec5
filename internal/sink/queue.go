package sink

import (
	"sync"

	"github.com/consentlab/studyctl/internal/event"
)

// recordQueue is a thread-safe FIFO queue of pending records.
//
// The queue is unbounded so the emitting side never blocks; a burst of
// interaction events must not stall a UI transition.
//
// The queue uses a channel for signaling so the worker can wait
// without spinning and still observe Close.
type recordQueue struct {
	mu      sync.Mutex
	records []event.Record
	closed  bool
	signal  chan struct{} // buffered, size 1 - coalesces signals
}

func newRecordQueue() *recordQueue {
	return &recordQueue{
		records: make([]event.Record, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a record to the back of the queue.
// Thread-safe. Returns false if the queue is closed.
func (q *recordQueue) Enqueue(rec event.Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.records = append(q.records, rec)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *recordQueue) TryDequeue() (event.Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return event.Record{}, false
	}

	rec := q.records[0]
	q.records[0] = event.Record{}
	if len(q.records) == 1 {
		q.records = q.records[:0]
	} else {
		q.records = q.records[1:]
	}
	return rec, true
}

// Wait returns a channel that signals when records may be available.
func (q *recordQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *recordQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Close signals that no more records will be enqueued.
// Wakes the worker by closing the signal channel.
func (q *recordQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
