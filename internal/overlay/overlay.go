// Package overlay implements the consent-prompt overlay as an explicit
// nested state machine: Closed, FirstLayer, or SecondLayer, plus the
// per-category toggle sub-state.
//
// An Overlay instance is mounted fresh for each step: the layer always
// starts at FirstLayer and toggle state is discarded on close. Only the
// surrounding "overlay is open" bit survives reloads, and that bit is
// owned by the step state machine, not by this package.
package overlay

import "github.com/consentlab/studyctl/internal/event"

// Layer is the overlay's display layer.
type Layer int

const (
	// LayerClosed means the overlay has reported closure and accepts
	// no further interactions.
	LayerClosed Layer = iota
	// LayerFirst is the initial privacy notice with accept/reject.
	LayerFirst
	// LayerSecond is the detailed per-category settings panel.
	LayerSecond
)

// String returns the layer name for logs and CLI output.
func (l Layer) String() string {
	switch l {
	case LayerClosed:
		return "closed"
	case LayerFirst:
		return "first_layer"
	case LayerSecond:
		return "second_layer"
	default:
		return "unknown"
	}
}

// Category identifies one consent toggle.
type Category string

const (
	CategoryNecessary Category = "necessary"
	CategoryTracking  Category = "tracking"
	CategoryAnalytics Category = "analytics"
	CategoryMarketing Category = "marketing"
)

// Categories lists every toggle category in display order.
func Categories() []Category {
	return []Category{
		CategoryMarketing,
		CategoryTracking,
		CategoryAnalytics,
		CategoryNecessary,
	}
}

// target maps a category to its event target.
func (c Category) target() event.Target {
	switch c {
	case CategoryNecessary:
		return event.TargetToggleNecessary
	case CategoryTracking:
		return event.TargetToggleTracking
	case CategoryAnalytics:
		return event.TargetToggleAnalytics
	case CategoryMarketing:
		return event.TargetToggleMarketing
	default:
		return ""
	}
}

// EmitFunc reports an overlay interaction to the event log.
type EmitFunc func(t event.Type, target event.Target)

// CloseFunc reports closure to the owning step state machine, tagged
// with the layer/action that triggered it.
type CloseFunc func(target event.Target)

// Overlay is one mounted consent-prompt instance.
type Overlay struct {
	layer   Layer
	toggles map[Category]bool
	emit    EmitFunc
	onClose CloseFunc
}

// Mount creates an overlay in FirstLayer and emits CMP_SHOWN. The
// shown event fires exactly once per mount: re-reading state never
// re-emits it.
func Mount(emit EmitFunc, onClose CloseFunc) *Overlay {
	if emit == nil {
		emit = func(event.Type, event.Target) {}
	}
	if onClose == nil {
		onClose = func(event.Target) {}
	}

	o := &Overlay{
		layer:   LayerFirst,
		toggles: make(map[Category]bool),
		emit:    emit,
		onClose: onClose,
	}
	o.emit(event.TypeCMPShown, event.TargetCMPFirstLayer)
	return o
}

// Layer returns the current display layer.
func (o *Overlay) Layer() Layer { return o.layer }

// ToggleState reports whether a category toggle is on.
func (o *Overlay) ToggleState(c Category) bool { return o.toggles[c] }

// Toggle flips a category and emits TOGGLE_ON or TOGGLE_OFF. Only
// valid in the second layer, where the toggles are rendered.
func (o *Overlay) Toggle(c Category) bool {
	if o.layer != LayerSecond || c.target() == "" {
		return false
	}

	next := !o.toggles[c]
	if next {
		o.emit(event.TypeToggleOn, c.target())
	} else {
		o.emit(event.TypeToggleOff, c.target())
	}
	o.toggles[c] = next
	return true
}

// MoreOptions moves from the first to the second layer.
func (o *Overlay) MoreOptions() bool {
	if o.layer != LayerFirst {
		return false
	}
	o.emit(event.TypeButtonClick, event.TargetBtnMoreOptions)
	o.emit(event.TypePanelOpen, event.TargetBtnMoreOptions)
	o.layer = LayerSecond
	return true
}

// Back returns from the second layer to the first.
func (o *Overlay) Back() bool {
	if o.layer != LayerSecond {
		return false
	}
	o.emit(event.TypeButtonClick, event.TargetBtnBack)
	o.emit(event.TypePanelClose, event.TargetBtnMoreOptions)
	o.layer = LayerFirst
	return true
}

// AcceptAll accepts everything from the first layer and closes.
func (o *Overlay) AcceptAll() bool {
	if o.layer != LayerFirst {
		return false
	}
	o.emit(event.TypeButtonClick, event.TargetBtnAcceptAll)
	o.close(event.TargetCMPFirstLayer)
	return true
}

// RejectAll rejects everything from the first layer and closes.
func (o *Overlay) RejectAll() bool {
	if o.layer != LayerFirst {
		return false
	}
	o.emit(event.TypeButtonClick, event.TargetBtnRejectAll)
	o.close(event.TargetCMPFirstLayer)
	return true
}

// SaveCustom saves the toggle selection from the second layer and
// closes. The toggle state itself is discarded; only the choice kind
// is recorded, by the consent-history view.
func (o *Overlay) SaveCustom() bool {
	if o.layer != LayerSecond {
		return false
	}
	o.emit(event.TypeButtonClick, event.TargetBtnSaveCustom)
	o.close(event.TargetCMPSecondLayer)
	return true
}

// CloseGlyph closes via the X control on either layer. Emits the
// structural close click before reporting closure.
func (o *Overlay) CloseGlyph() bool {
	if o.layer == LayerClosed {
		return false
	}

	target := event.TargetCMPFirstLayer
	if o.layer == LayerSecond {
		target = event.TargetCMPSecondLayer
	}
	o.emit(event.TypeButtonClick, event.TargetBtnCloseCMP)
	o.close(target)
	return true
}

// OutsideClick records a click on the page background while the
// overlay is open. It does not close the overlay; closing requires an
// explicit control.
func (o *Overlay) OutsideClick() bool {
	if o.layer == LayerClosed {
		return false
	}
	o.emit(event.TypeClick, event.TargetOutsideCMP)
	return true
}

// close transitions to Closed and notifies the owner. Toggle state
// dies with the mount.
func (o *Overlay) close(target event.Target) {
	o.layer = LayerClosed
	o.onClose(target)
}
