package sink

import (
	"context"
	"log/slog"
	"sync"

	"github.com/consentlab/studyctl/internal/event"
)

// Async wraps a transport sink with a fire-and-forget dispatch queue.
//
// Emit enqueues and returns immediately; a single worker goroutine
// drains the queue and delivers records in order. Delivery failures
// are logged and dropped, never retried, and never surfaced to the
// emitting side.
//
// Close stops accepting records, lets the worker drain what is already
// queued, and waits for it to exit. An abandoned process (the reload
// case) simply loses whatever was in flight, which is within the
// delivery contract.
type Async struct {
	transport Sink
	queue     *recordQueue
	done      sync.WaitGroup
}

// NewAsync starts the background worker over the given transport.
func NewAsync(transport Sink) *Async {
	a := &Async{
		transport: transport,
		queue:     newRecordQueue(),
	}
	a.done.Add(1)
	go a.run()
	return a
}

// Emit enqueues a record for background delivery. Never blocks, never
// returns an error; a record offered after Close is dropped.
func (a *Async) Emit(_ context.Context, rec event.Record) error {
	a.queue.Enqueue(rec)
	return nil
}

// Close drains the queue and stops the worker.
func (a *Async) Close() {
	a.queue.Close()
	a.done.Wait()
}

func (a *Async) run() {
	defer a.done.Done()

	for {
		rec, ok := a.queue.TryDequeue()
		if ok {
			if err := a.transport.Emit(context.Background(), rec); err != nil {
				slog.Error("event sink delivery failed",
					"type", rec.Type,
					"target", rec.Target,
					"site", rec.SiteName,
					"step", rec.StepIndex,
					"error", err,
				)
			}
			continue
		}

		if _, open := <-a.queue.Wait(); !open && a.queue.Len() == 0 {
			return
		}
	}
}
