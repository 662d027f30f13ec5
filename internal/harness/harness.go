// Package harness runs scripted study scenarios for conformance tests.
//
// A Runner owns a real SQLite store, an in-memory sink, and a fake
// clock, and replays scenario steps against a live controller the way
// a participant would drive the client. Reload steps tear the
// controller down and remount it on the same store, exercising
// rehydration.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/consentlab/studyctl/internal/catalog"
	"github.com/consentlab/studyctl/internal/clock"
	"github.com/consentlab/studyctl/internal/event"
	"github.com/consentlab/studyctl/internal/overlay"
	"github.com/consentlab/studyctl/internal/session"
	"github.com/consentlab/studyctl/internal/sink"
	"github.com/consentlab/studyctl/internal/store"
	"github.com/consentlab/studyctl/internal/study"
)

// Runner executes scenarios against a controller.
type Runner struct {
	store *store.Store
	sink  *sink.Memory
	clock *clock.FakeClock
	pages catalog.Catalog
	ctrl  *study.Controller
	ov    *overlay.Overlay
}

// StepOutcome captures the derived state after one scenario step.
type StepOutcome struct {
	Do      string `json:"do"`
	State   string `json:"state"`
	Step    int    `json:"step"`
	ShowCMP bool   `json:"show_cmp"`
	Warning bool   `json:"warning"`
}

// Result is a completed scenario run.
type Result struct {
	Events   []event.Record
	Outcomes []StepOutcome
}

// NewRunner opens a store at dbPath and mounts the initial controller.
func NewRunner(dbPath string, pages catalog.Catalog) (*Runner, error) {
	return newRunner(dbPath, pages, nil)
}

// NewRunnerWithOrder pre-seeds the frozen page order before the first
// mount. Golden trace tests need this so site names are deterministic.
func NewRunnerWithOrder(dbPath string, pages catalog.Catalog, order []int) (*Runner, error) {
	return newRunner(dbPath, pages, order)
}

func newRunner(dbPath string, pages catalog.Catalog, order []int) (*Runner, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		store: st,
		sink:  sink.NewMemory(),
		clock: clock.Fake(time.Unix(0, 0)),
		pages: pages,
	}
	if len(order) > 0 {
		encoded, err := json.Marshal(order)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("encode seeded order: %w", err)
		}
		if err := st.Set(context.Background(), session.KeyOrder, string(encoded)); err != nil {
			st.Close()
			return nil, err
		}
	}
	if err := r.mount(); err != nil {
		st.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the store. The controller's pending timer is stopped.
func (r *Runner) Close() error {
	if r.ctrl != nil {
		r.ctrl.Close()
	}
	return r.store.Close()
}

// Controller exposes the live controller for direct assertions.
func (r *Runner) Controller() *study.Controller { return r.ctrl }

// Events returns the trace captured so far.
func (r *Runner) Events() []event.Record { return r.sink.Records() }

// mount constructs a controller on the shared store and settles the
// overlay, as an application boot would.
func (r *Runner) mount() error {
	ctrl, err := study.New(context.Background(), r.store, r.sink, r.pages,
		study.WithClock(r.clock),
	)
	if err != nil {
		return err
	}
	r.ctrl = ctrl
	r.ov = nil
	r.settle()
	return nil
}

// settle mirrors the render pass: mount the overlay when an active
// step shows it, drop the handle once it is closed. Mounting is what
// fires CMP_SHOWN, so it must happen at most once per step display.
func (r *Runner) settle() {
	if r.ov != nil && !r.ctrl.ShowCMP() {
		r.ov = nil
	}
	if r.ov == nil {
		r.ov = r.ctrl.MountOverlay() // nil unless ActiveStep with overlay bit
	}
}

// Run executes every step of a scenario and returns the trace.
func (r *Runner) Run(s Scenario) (*Result, error) {
	res := &Result{}
	ctx := context.Background()

	for i, step := range s.Steps {
		if err := r.apply(ctx, step); err != nil {
			return nil, fmt.Errorf("scenario %s step %d (%s): %w", s.Name, i, step.Do, err)
		}
		r.settle()
		res.Outcomes = append(res.Outcomes, StepOutcome{
			Do:      step.Do,
			State:   r.ctrl.State().String(),
			Step:    r.ctrl.Step(),
			ShowCMP: r.ctrl.ShowCMP(),
			Warning: r.ctrl.Warning(),
		})
	}

	res.Events = r.sink.Records()
	return res, nil
}

func (r *Runner) apply(ctx context.Context, step Step) error {
	switch step.Do {
	case "advance":
		_, err := r.ctrl.Advance(ctx)
		return err

	case "accept_all":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.AcceptAll() })
	case "reject_all":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.RejectAll() })
	case "more_options":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.MoreOptions() })
	case "back":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.Back() })
	case "save_custom":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.SaveCustom() })
	case "close_glyph":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.CloseGlyph() })
	case "outside_click":
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool { return o.OutsideClick() })

	case "toggle":
		if step.Category == "" {
			return fmt.Errorf("toggle requires a category")
		}
		return r.overlayAction(step.Do, func(o *overlay.Overlay) bool {
			return o.Toggle(overlay.Category(step.Category))
		})

	case "elapse":
		d, err := step.ParseDuration()
		if err != nil {
			return err
		}
		r.clock.Advance(d)
		return nil

	case "reload":
		r.ctrl.Close()
		return r.mount()

	case "resize":
		r.ctrl.SetTooSmall(ctx, step.TooSmall)
		return nil

	case "dismiss_warning":
		r.ctrl.DismissWarning()
		return nil

	default:
		return fmt.Errorf("unknown action %q", step.Do)
	}
}

func (r *Runner) overlayAction(name string, fn func(*overlay.Overlay) bool) error {
	if r.ov == nil {
		return fmt.Errorf("%s: no overlay mounted", name)
	}
	if !fn(r.ov) {
		return fmt.Errorf("%s: invalid in layer %s", name, r.ov.Layer())
	}
	return nil
}
