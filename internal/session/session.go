// Package session owns the persisted per-participant record: stable
// identity, the frozen randomized page order, the current step, and the
// one-way session boundary latches.
//
// Every field is created lazily on first access: read the persisted
// value; if absent or malformed, compute the default and persist it
// immediately. This is the only place defaults are written, which makes
// rehydration idempotent: replaying the same stored values always
// yields the same record.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"

	"github.com/consentlab/studyctl/internal/store"
)

// Persistence keys. The step key is named "timestamp" for backward
// compatibility with the deployed log tooling.
const (
	KeySessionID      = "session_id"
	KeyOrder          = "order"
	KeyStep           = "timestamp"
	KeyShowCMP        = "show_cmp"
	KeySessionStarted = "sessionStarted"
	KeySessionEnded   = "sessionEnded"
	KeyConsentHistory = "consent_history"
)

// Record is the rehydrated session state.
//
// Invariants maintained by callers (the step state machine):
//   - Order is assigned once and never re-shuffled.
//   - Step only increases, except by explicit Reset.
//   - Started and Ended flip false→true at most once each.
type Record struct {
	SessionID string
	Order     []int
	Step      int
	ShowCMP   bool
	Started   bool
	Ended     bool
}

// Load rehydrates the session record, lazily creating identity and
// order on first access. Malformed stored values are treated as absent:
// the default is recomputed and re-persisted rather than crashing the
// controller.
func Load(ctx context.Context, st *store.Store, pageCount int) (Record, error) {
	if pageCount <= 0 {
		return Record{}, fmt.Errorf("session load: page count must be positive, got %d", pageCount)
	}

	id, err := getOrCreateID(ctx, st)
	if err != nil {
		return Record{}, err
	}

	order, err := getOrCreateOrder(ctx, st, pageCount)
	if err != nil {
		return Record{}, err
	}

	step, err := loadStep(ctx, st)
	if err != nil {
		return Record{}, err
	}

	showCMP, err := loadShowCMP(ctx, st)
	if err != nil {
		return Record{}, err
	}

	started, _, err := st.Get(ctx, KeySessionStarted)
	if err != nil {
		return Record{}, err
	}
	ended, _, err := st.Get(ctx, KeySessionEnded)
	if err != nil {
		return Record{}, err
	}

	return Record{
		SessionID: id,
		Order:     order,
		Step:      step,
		ShowCMP:   showCMP,
		Started:   started == "true",
		Ended:     ended == "true",
	}, nil
}

// getOrCreateID returns the stable participant identifier, generating
// and persisting a fresh one on first access.
func getOrCreateID(ctx context.Context, st *store.Store) (string, error) {
	saved, ok, err := st.Get(ctx, KeySessionID)
	if err != nil {
		return "", err
	}
	if ok && saved != "" {
		return saved, nil
	}

	id := uuid.NewString()
	if err := st.Set(ctx, KeySessionID, id); err != nil {
		return "", fmt.Errorf("persist session id: %w", err)
	}
	return id, nil
}

// getOrCreateOrder returns the frozen page permutation, shuffling and
// persisting one on first access. A stored value that is not a valid
// permutation of [0, pageCount) counts as absent.
func getOrCreateOrder(ctx context.Context, st *store.Store, pageCount int) ([]int, error) {
	saved, ok, err := st.Get(ctx, KeyOrder)
	if err != nil {
		return nil, err
	}
	if ok {
		var order []int
		if json.Unmarshal([]byte(saved), &order) == nil && isPermutation(order, pageCount) {
			return order, nil
		}
	}

	order := shuffledOrder(pageCount)
	encoded, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	if err := st.Set(ctx, KeyOrder, string(encoded)); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	return order, nil
}

// shuffledOrder produces a uniform random permutation of [0, n).
func shuffledOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rand.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// isPermutation reports whether order contains each of 0..n-1 exactly
// once.
func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func loadStep(ctx context.Context, st *store.Store) (int, error) {
	saved, ok, err := st.Get(ctx, KeyStep)
	if err != nil {
		return 0, err
	}
	if ok {
		if step, err := strconv.Atoi(saved); err == nil {
			return step, nil
		}
	}
	// Absent or malformed: pre-session default.
	if err := st.Set(ctx, KeyStep, "-1"); err != nil {
		return 0, fmt.Errorf("persist step default: %w", err)
	}
	return -1, nil
}

func loadShowCMP(ctx context.Context, st *store.Store) (bool, error) {
	saved, ok, err := st.Get(ctx, KeyShowCMP)
	if err != nil {
		return false, err
	}
	if ok && (saved == "true" || saved == "false") {
		return saved == "true", nil
	}
	// Every step starts with the overlay open, so the default is true.
	if err := st.Set(ctx, KeyShowCMP, "true"); err != nil {
		return false, fmt.Errorf("persist show_cmp default: %w", err)
	}
	return true, nil
}

// SaveStep persists the current step index.
func SaveStep(ctx context.Context, st *store.Store, step int) error {
	return st.Set(ctx, KeyStep, strconv.Itoa(step))
}

// SaveShowCMP persists the overlay-open bit.
func SaveShowCMP(ctx context.Context, st *store.Store, show bool) error {
	return st.Set(ctx, KeyShowCMP, strconv.FormatBool(show))
}

// MarkStarted flips the session-started latch. One-way: callers check
// the latch before emitting the boundary event.
func MarkStarted(ctx context.Context, st *store.Store) error {
	return st.Set(ctx, KeySessionStarted, "true")
}

// MarkEnded flips the session-ended latch.
func MarkEnded(ctx context.Context, st *store.Store) error {
	return st.Set(ctx, KeySessionEnded, "true")
}

// Reset clears every persistence key, forcing fresh identity and order
// generation on the next load. Operator action only; never part of the
// participant flow.
func Reset(ctx context.Context, st *store.Store) error {
	return st.Clear(ctx)
}
