// Package consent implements the consent-history view: a per-site
// record of the participant's consent choices, persisted under the
// consent_history key. The history is mutated only here; the step state
// machine treats it as read-only.
package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/consentlab/studyctl/internal/session"
	"github.com/consentlab/studyctl/internal/store"
)

// Choice is the recorded consent decision for one site.
type Choice string

const (
	ChoiceAcceptAll Choice = "ACCEPT_ALL"
	ChoiceRejectAll Choice = "REJECT_ALL"
	ChoiceCustom    Choice = "CUSTOM"
	ChoiceRetracted Choice = "RETRACTED"
)

// Entry records one site's consent decision and when it was made.
// RetractionTimestamp is set only after the choice was retracted.
type Entry struct {
	Choice              Choice     `json:"choice"`
	Timestamp           time.Time  `json:"timestamp"`
	RetractionTimestamp *time.Time `json:"retractionTimestamp,omitempty"`
}

// History maps site name to the most recent consent entry.
type History map[string]Entry

// Load reads the history. A malformed stored value degrades to an
// empty history rather than failing the caller.
func Load(ctx context.Context, st *store.Store) (History, error) {
	saved, ok, err := st.Get(ctx, session.KeyConsentHistory)
	if err != nil {
		return nil, err
	}
	if !ok || saved == "" {
		return History{}, nil
	}

	var h History
	if err := json.Unmarshal([]byte(saved), &h); err != nil {
		slog.Warn("consent history malformed, starting empty", "error", err)
		return History{}, nil
	}
	return h, nil
}

// Save persists the history.
func Save(ctx context.Context, st *store.Store, h History) error {
	encoded, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode consent history: %w", err)
	}
	return st.Set(ctx, session.KeyConsentHistory, string(encoded))
}

// RecordChoice upserts the entry for a site with a fresh timestamp.
// Called by the view layer when the overlay closes with a terminal
// action.
func RecordChoice(ctx context.Context, st *store.Store, site string, choice Choice, now time.Time) error {
	h, err := Load(ctx, st)
	if err != nil {
		return err
	}
	h[site] = Entry{Choice: choice, Timestamp: now.UTC()}
	return Save(ctx, st, h)
}

// Retract marks a site's consent as retracted, preserving the original
// choice timestamp. Retracting twice is an error surfaced to the view.
func Retract(ctx context.Context, st *store.Store, site string, now time.Time) error {
	h, err := Load(ctx, st)
	if err != nil {
		return err
	}

	entry, ok := h[site]
	if !ok {
		return fmt.Errorf("no consent recorded for site %q", site)
	}
	if entry.Choice == ChoiceRetracted {
		return fmt.Errorf("consent for site %q already retracted", site)
	}

	t := now.UTC()
	entry.Choice = ChoiceRetracted
	entry.RetractionTimestamp = &t
	h[site] = entry
	return Save(ctx, st, h)
}

// Sites returns the recorded site names in stable sorted order.
func (h History) Sites() []string {
	sites := make([]string, 0, len(h))
	for site := range h {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}
