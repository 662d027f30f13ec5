package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a scripted sequence of
// participant actions driven against a controller with a fake clock
// and an in-memory sink. The resulting event trace is validated by
// assertions and golden files.
type Scenario struct {
	// Name uniquely identifies this scenario; it doubles as the
	// golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the scripted action sequence.
	Steps []Step `yaml:"steps"`
}

// Step is one scripted participant (or environment) action.
//
// Supported actions:
//   - advance:          press the next/start control
//   - accept_all, reject_all, more_options, back, save_custom,
//     close_glyph, outside_click: overlay interactions
//   - toggle:           flip a category toggle (requires category)
//   - elapse:           advance the fake clock (requires duration)
//   - reload:           unmount and remount the controller on the
//     same store, as a browser reload would
//   - resize:           set the viewport guard (too_small)
//   - dismiss_warning:  dismiss the validation banner
type Step struct {
	Do       string `yaml:"do"`
	Category string `yaml:"category,omitempty"`
	Duration string `yaml:"duration,omitempty"` // time.ParseDuration format
	TooSmall bool   `yaml:"too_small,omitempty"`
}

// ParseDuration returns the step's duration for elapse actions.
func (s Step) ParseDuration() (time.Duration, error) {
	if s.Duration == "" {
		return 0, fmt.Errorf("elapse requires a duration")
	}
	d, err := time.ParseDuration(s.Duration)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s.Duration, err)
	}
	return d, nil
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return Scenario{}, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(s.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario %s: no steps defined", path)
	}
	return s, nil
}
