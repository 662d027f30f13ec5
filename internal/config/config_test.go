package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "studyctl.db", cfg.DBPath)
	assert.Empty(t, cfg.SinkURL)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, 1024, cfg.MinViewportWidth)
	assert.Equal(t, 1500*time.Millisecond, cfg.LoadingDelay)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STUDYCTL_DB", "/tmp/profile.db")
	t.Setenv("STUDYCTL_SINK_URL", "https://log.example.com/events")
	t.Setenv("STUDYCTL_SINK_TOKEN", "tok")
	t.Setenv("STUDYCTL_MIN_WIDTH", "800")
	t.Setenv("STUDYCTL_LOADING_DELAY", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/profile.db", cfg.DBPath)
	assert.Equal(t, "https://log.example.com/events", cfg.SinkURL)
	assert.Equal(t, "tok", cfg.SinkToken)
	assert.Equal(t, 800, cfg.MinViewportWidth)
	assert.Equal(t, 2*time.Second, cfg.LoadingDelay)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STUDYCTL_LOADING_DELAY", "soon")

	_, err := Load()
	assert.Error(t, err)
}
