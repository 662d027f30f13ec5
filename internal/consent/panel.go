package consent

import "github.com/consentlab/studyctl/internal/event"

// EmitFunc reports a panel interaction to the event log.
type EmitFunc func(t event.Type, target event.Target)

// Panel tracks the consent-history panel's open/closed state. The
// state is pure UI, never persisted.
type Panel struct {
	open bool
	emit EmitFunc
}

// NewPanel creates a closed panel.
func NewPanel(emit EmitFunc) *Panel {
	if emit == nil {
		emit = func(event.Type, event.Target) {}
	}
	return &Panel{emit: emit}
}

// Toggle flips the panel and emits the matching open/close event.
// Returns the new open state.
func (p *Panel) Toggle() bool {
	p.open = !p.open
	if p.open {
		p.emit(event.TypeHistoryPanelOpen, event.TargetIconConsentHistory)
	} else {
		p.emit(event.TypeHistoryPanelClose, event.TargetIconConsentHistory)
	}
	return p.open
}

// Open reports whether the panel is currently open.
func (p *Panel) Open() bool { return p.open }
