package store

import (
	"context"
	"fmt"
	"time"

	"github.com/consentlab/studyctl/internal/event"
)

// StoredEvent is one row of the local append-only events table.
type StoredEvent struct {
	ID        int64
	Record    event.Record
	CreatedAt time.Time
}

// AppendEvent inserts an interaction record into the local events
// table. Rows are insert-only; there is no update or delete path.
func (s *Store) AppendEvent(ctx context.Context, rec event.Record, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, design_variant, site_name, trial_index, event_type, event_target, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SessionID,
		rec.DesignVariant,
		rec.SiteName,
		rec.StepIndex,
		string(rec.Type),
		string(rec.Target),
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns every stored event for a session in insertion
// order. An empty sessionID returns all sessions.
//
// Results are ordered by id ASC so repeated reads are deterministic.
func (s *Store) ListEvents(ctx context.Context, sessionID string) ([]StoredEvent, error) {
	query := `
		SELECT id, session_id, design_variant, site_name, trial_index, event_type, event_target, created_at
		FROM events
	`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var (
			ev        StoredEvent
			typ, tgt  string
			createdAt string
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.Record.SessionID,
			&ev.Record.DesignVariant,
			&ev.Record.SiteName,
			&ev.Record.StepIndex,
			&typ,
			&tgt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list events: scan: %w", err)
		}
		ev.Record.Type = event.Type(typ)
		ev.Record.Target = event.Target(tgt)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ev.CreatedAt = t
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}
