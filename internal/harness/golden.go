package harness

import (
	"encoding/json"
	"fmt"

	"github.com/consentlab/studyctl/internal/event"
)

// TraceEvent is one event in a golden trace snapshot. Session IDs are
// random per run, so they are excluded to keep snapshots deterministic.
type TraceEvent struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Site   string `json:"site"`
	Step   int    `json:"step"`
}

// TraceSnapshot is the serialized form compared against golden files.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Snapshot builds the golden representation of a scenario run.
//
// The snapshot carries only the deterministic event fields; the page
// order must be pinned by the caller (tests seed the store with a
// fixed order) for site names to be stable.
func Snapshot(name string, events []event.Record) *TraceSnapshot {
	snap := &TraceSnapshot{ScenarioName: name, Trace: []TraceEvent{}}
	for _, rec := range events {
		snap.Trace = append(snap.Trace, TraceEvent{
			Type:   string(rec.Type),
			Target: string(rec.Target),
			Site:   rec.SiteName,
			Step:   rec.StepIndex,
		})
	}
	return snap
}

// MarshalIndent renders the snapshot as stable, indented JSON for
// golden file comparison.
func (s *TraceSnapshot) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trace snapshot: %w", err)
	}
	return append(data, '\n'), nil
}
