// Package store provides SQLite-backed durable storage for the study
// client: a string key/value table for session state and a local
// append-only events table.
//
// The kv table is the persistence layer behind session rehydration.
// Contract per key: Get returns the stored string or reports absence;
// Set is last-write-wins; Remove deletes. Callers keep a small number
// of independent keys consistent by writing them in a fixed order that
// is safe to partially apply.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
