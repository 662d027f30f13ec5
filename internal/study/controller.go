// Package study implements the session lifecycle controller: a state
// machine over the persisted session record that derives the five
// display states, gates advancement on consent resolution, and emits
// timestamped interaction events.
//
// One Controller instance is constructed at the application root and
// passed by reference to every view; there is no package-level mutable
// state. Constructing a Controller is a "mount": rehydration decides
// once, at that point, whether this is a fresh load or a reload.
package study

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/consentlab/studyctl/internal/catalog"
	"github.com/consentlab/studyctl/internal/clock"
	"github.com/consentlab/studyctl/internal/event"
	"github.com/consentlab/studyctl/internal/overlay"
	"github.com/consentlab/studyctl/internal/session"
	"github.com/consentlab/studyctl/internal/sink"
	"github.com/consentlab/studyctl/internal/store"
)

// DefaultLoadingDuration is the fixed inter-step loading delay.
const DefaultLoadingDuration = 1500 * time.Millisecond

// Controller is the step state machine. All methods are safe for
// concurrent use, although the expected execution model is a single
// event-driven caller plus the loading timer callback.
type Controller struct {
	mu sync.Mutex

	store   *store.Store
	sink    sink.Sink
	clock   clock.Clock
	pages   catalog.Catalog
	loadDur time.Duration

	sessionID string
	order     []int
	step      int
	showCMP   bool
	started   bool
	ended     bool

	// Transient UI state, never persisted.
	loading   bool
	loadTimer clock.Timer
	warning   bool
	tooSmall  bool
	closed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock injects a clock. Tests use clock.Fake.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithLoadingDuration overrides the fixed loading delay.
func WithLoadingDuration(d time.Duration) Option {
	return func(ctrl *Controller) { ctrl.loadDur = d }
}

// New rehydrates the session record and mounts the controller.
//
// Reload detection happens here and only here: when the persisted step
// has left the intro and the session has not ended, this mount is a
// reload and emits PAGE_RELOADED. Fresh transitions into a step emit
// PAGE_LOADED from Advance instead. Re-deriving display state later
// never re-emits either.
//
// If a previous process persisted step >= N but crashed before the
// ended latch, the latch is completed here so SESSION_ENDED still
// fires exactly once.
func New(ctx context.Context, st *store.Store, snk sink.Sink, pages catalog.Catalog, opts ...Option) (*Controller, error) {
	rec, err := session.Load(ctx, st, pages.Len())
	if err != nil {
		return nil, err
	}

	c := &Controller{
		store:     st,
		sink:      snk,
		clock:     clock.Real(),
		pages:     pages,
		loadDur:   DefaultLoadingDuration,
		sessionID: rec.SessionID,
		order:     rec.Order,
		step:      rec.Step,
		showCMP:   rec.ShowCMP,
		started:   rec.Started,
		ended:     rec.Ended,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.step > -1 && !c.ended {
		c.emit(ctx, event.TypePageReloaded, event.TargetWindow, c.siteAt(c.step), c.step)
	}

	if c.step >= c.pages.Len() && !c.ended {
		c.emit(ctx, event.TypeSessionEnded, event.TargetWindow, "", c.step)
		c.ended = true
		if err := session.MarkEnded(ctx, st); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// State derives the current display state. Pure: calling it has no
// side effects and repeated calls return the same value until a
// transition happens.
func (c *Controller) State() DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() DisplayState {
	return DeriveState(c.step, c.pages.Len(), c.tooSmall, c.loading)
}

// Advance moves to the next step. Returns true if the step changed.
//
// When the validation gate blocks (overlay open on a stimulus page),
// the step does not change: the transient warning flag is raised and a
// VALIDATION_FAILED event is emitted instead.
//
// A returned error means a persistence write failed; the in-memory
// transition has still been applied and the study continues best-effort.
func (c *Controller) Advance(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.step >= c.pages.Len() {
		return false, nil
	}

	onStimulusPage := c.step >= 0
	if onStimulusPage && !CanAdvance(c.showCMP) {
		c.warning = true
		c.emit(ctx, event.TypeValidationFailed, event.TargetNextButton, c.siteAt(c.step), c.step)
		return false, nil
	}

	c.warning = false

	if onStimulusPage {
		c.emit(ctx, event.TypeButtonClick, event.TargetNextButton, c.siteAt(c.step), c.step)
	}

	if c.step == -1 && !c.started {
		c.emit(ctx, event.TypeSessionStarted, event.TargetWindow, "", c.step)
		c.started = true
		if err := session.MarkStarted(ctx, c.store); err != nil {
			return true, err
		}
	}

	newStep := c.step + 1

	if newStep < c.pages.Len() {
		c.loading = true
		if c.loadTimer != nil {
			c.loadTimer.Stop()
		}
		c.loadTimer = c.clock.AfterFunc(c.loadDur, c.loadingDone)
	}

	c.step = newStep
	if err := session.SaveStep(ctx, c.store, newStep); err != nil {
		return true, err
	}

	c.showCMP = true
	if err := session.SaveShowCMP(ctx, c.store, true); err != nil {
		return true, err
	}

	if newStep < c.pages.Len() {
		c.emit(ctx, event.TypePageLoaded, event.TargetWindow, c.siteAt(newStep), newStep)
	} else if !c.ended {
		c.emit(ctx, event.TypeSessionEnded, event.TargetWindow, "", newStep)
		c.ended = true
		if err := session.MarkEnded(ctx, c.store); err != nil {
			return true, err
		}
	}

	return true, nil
}

// loadingDone is the timer callback ending the loading transition.
func (c *Controller) loadingDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.loadTimer = nil
}

// CloseOverlay records the overlay's closure, tagged with the closing
// target. Returns false when no overlay is open.
func (c *Controller) CloseOverlay(ctx context.Context, target event.Target) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.showCMP || c.step < 0 || c.step >= c.pages.Len() {
		return false, nil
	}

	c.emit(ctx, event.TypeCMPClosed, target, c.siteAt(c.step), c.step)

	c.showCMP = false
	c.warning = false
	if err := session.SaveShowCMP(ctx, c.store, false); err != nil {
		return true, err
	}
	return true, nil
}

// MountOverlay mounts a fresh consent overlay for the current step,
// wired back to CloseOverlay. Returns nil unless the display state is
// ActiveStep with the overlay bit set.
//
// Site and step are captured at mount time, matching how the overlay
// receives its page context when rendered.
func (c *Controller) MountOverlay() *overlay.Overlay {
	c.mu.Lock()
	if c.stateLocked() != StateActiveStep || !c.showCMP {
		c.mu.Unlock()
		return nil
	}
	site := c.siteAt(c.step)
	step := c.step
	c.mu.Unlock()

	return overlay.Mount(
		func(t event.Type, target event.Target) {
			c.mu.Lock()
			c.emit(context.Background(), t, target, site, step)
			c.mu.Unlock()
		},
		func(target event.Target) {
			_, _ = c.CloseOverlay(context.Background(), target)
		},
	)
}

// SetTooSmall updates the externally supplied viewport guard. The
// PAGE_TOO_SMALL event is edge-triggered: it fires only on the
// false→true transition, not on every evaluation while the guard
// stays true.
func (c *Controller) SetTooSmall(ctx context.Context, tooSmall bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tooSmall && !c.tooSmall {
		c.emit(ctx, event.TypePageTooSmall, event.TargetWindow, "", c.step)
	}
	c.tooSmall = tooSmall
}

// RecordOutsideClick logs a background click outside the overlay.
func (c *Controller) RecordOutsideClick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step < 0 || c.step >= c.pages.Len() {
		return
	}
	c.emit(ctx, event.TypeClick, event.TargetOutsideCMP, c.siteAt(c.step), c.step)
}

// Emit logs an arbitrary interaction in this session's context. Used
// by the view layers (consent-history panel, CLI) for events outside
// the step machine's own transitions.
func (c *Controller) Emit(ctx context.Context, t event.Type, target event.Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(ctx, t, target, c.siteAt(c.step), c.step)
}

// Warning reports whether the validation warning banner is up.
func (c *Controller) Warning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warning
}

// DismissWarning clears the warning banner. Pure UI state.
func (c *Controller) DismissWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warning = false
}

// CurrentPage returns the stimulus page for the current step.
func (c *Controller) CurrentPage() (catalog.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step < 0 || c.step >= c.pages.Len() {
		return catalog.Page{}, false
	}
	return c.pages.Page(c.order[c.step])
}

// SessionID returns the stable participant identifier.
func (c *Controller) SessionID() string { return c.sessionID }

// Order returns a copy of the frozen page order.
func (c *Controller) Order() []int {
	out := make([]int, len(c.order))
	copy(out, c.order)
	return out
}

// Step returns the current step index in [-1, N].
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// ShowCMP reports whether the overlay should be presented.
func (c *Controller) ShowCMP() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showCMP
}

// Started reports the session-started latch.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Ended reports the session-ended latch.
func (c *Controller) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// Close cancels the pending loading timer so a stale callback cannot
// fire after the controller is unmounted. In-flight sink deliveries
// are abandoned, not awaited.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.loadTimer != nil {
		c.loadTimer.Stop()
		c.loadTimer = nil
	}
}

// siteAt returns the page name for a step index, or the empty string
// for session-scoped positions (intro, finished).
func (c *Controller) siteAt(step int) string {
	if step < 0 || step >= c.pages.Len() {
		return ""
	}
	page, ok := c.pages.Page(c.order[step])
	if !ok {
		return ""
	}
	return page.Name
}

// emit dispatches one record to the sink. Fire-and-forget: a sink
// error is logged and never surfaced to the transition that caused it.
// Callers must hold c.mu (siteAt reads the order slice).
func (c *Controller) emit(ctx context.Context, t event.Type, target event.Target, site string, step int) {
	rec := event.Record{
		SessionID:     c.sessionID,
		DesignVariant: event.DesignBaseline,
		SiteName:      site,
		StepIndex:     step,
		Type:          t,
		Target:        target,
	}
	if err := c.sink.Emit(ctx, rec); err != nil {
		slog.Error("event emission failed",
			"type", t,
			"target", target,
			"step", step,
			"error", err,
		)
	}
}
