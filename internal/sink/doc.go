// Package sink delivers interaction events to an append-only log.
//
// Delivery policy is at-most-once, best-effort: the Async wrapper
// dispatches records on a background worker so state transitions never
// block on the network, and transport failures are logged to slog and
// otherwise swallowed. There are no retries: losing an event on
// transport failure is acceptable, duplicating application state is
// not.
package sink
