// Package config loads runtime configuration from environment
// variables. Flags override env values at the CLI layer.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration.
type Config struct {
	// DBPath is the SQLite file holding session state and the local
	// event log. One file per participant profile.
	DBPath string `env:"STUDYCTL_DB" envDefault:"studyctl.db"`

	// SinkURL, when set, switches event delivery from the local
	// events table to a remote append-only log endpoint.
	SinkURL string `env:"STUDYCTL_SINK_URL"`

	// SinkToken authenticates against the remote log endpoint.
	SinkToken string `env:"STUDYCTL_SINK_TOKEN"`

	// CatalogPath optionally replaces the built-in stimulus set.
	CatalogPath string `env:"STUDYCTL_CATALOG"`

	// MinViewportWidth is the threshold below which the too-small
	// guard engages.
	MinViewportWidth int `env:"STUDYCTL_MIN_WIDTH" envDefault:"1024"`

	// LoadingDelay is the fixed inter-step loading duration.
	LoadingDelay time.Duration `env:"STUDYCTL_LOADING_DELAY" envDefault:"1500ms"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
