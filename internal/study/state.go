package study

// DisplayState is the single display state derived from session state.
// States are mutually exclusive and checked in priority order:
// TooSmall > Loading > Intro > Finished > ActiveStep.
type DisplayState int

const (
	// StateTooSmall guards against viewports below the supported
	// width. Externally supplied; overrides everything else.
	StateTooSmall DisplayState = iota
	// StateLoading is the transient inter-step transition. Not
	// persisted: a reload during loading resumes straight into
	// ActiveStep.
	StateLoading
	// StateIntro is the welcome page (step == -1).
	StateIntro
	// StateFinished is the thank-you page (step >= page count).
	StateFinished
	// StateActiveStep is a stimulus page with step in [0, N).
	StateActiveStep
)

// DeriveState computes the display state from its inputs. Pure; the
// controller and passive views (status) share this derivation.
func DeriveState(step, pageCount int, tooSmall, loading bool) DisplayState {
	switch {
	case tooSmall:
		return StateTooSmall
	case loading:
		return StateLoading
	case step == -1:
		return StateIntro
	case step >= pageCount:
		return StateFinished
	default:
		return StateActiveStep
	}
}

// String returns the state name for logs and CLI output.
func (s DisplayState) String() string {
	switch s {
	case StateTooSmall:
		return "too_small"
	case StateLoading:
		return "loading"
	case StateIntro:
		return "intro"
	case StateFinished:
		return "finished"
	case StateActiveStep:
		return "active_step"
	default:
		return "unknown"
	}
}
