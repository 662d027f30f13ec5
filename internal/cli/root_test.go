package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command tree against a shared temp profile.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// setupProfile points every command in this test at one temp database.
func setupProfile(t *testing.T) {
	t.Helper()
	t.Setenv("STUDYCTL_DB", filepath.Join(t.TempDir(), "profile.db"))
	// Keep one-shot mounts instant in tests.
	t.Setenv("STUDYCTL_LOADING_DELAY", "1ms")
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.Equal(t, "ok", env.Status)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestCLI_InvalidFormat(t *testing.T) {
	setupProfile(t)

	_, err := execute(t, "status", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestCLI_StatusFreshSession(t *testing.T) {
	setupProfile(t)

	out, err := execute(t, "status", "--format", "json")
	require.NoError(t, err)

	var data struct {
		SessionID string `json:"session_id"`
		State     string `json:"state"`
		Step      int    `json:"step"`
		PageCount int    `json:"page_count"`
		ShowCMP   bool   `json:"show_cmp"`
	}
	decodeData(t, out, &data)
	assert.NotEmpty(t, data.SessionID)
	assert.Equal(t, "intro", data.State)
	assert.Equal(t, -1, data.Step)
	assert.Equal(t, 3, data.PageCount)
	assert.True(t, data.ShowCMP)
}

func TestCLI_StatusIsPassive(t *testing.T) {
	setupProfile(t)

	_, err := execute(t, "status")
	require.NoError(t, err)

	out, err := execute(t, "events", "--format", "json")
	require.NoError(t, err)

	var events []json.RawMessage
	decodeData(t, out, &events)
	assert.Empty(t, events, "status must not emit events")
}

func TestCLI_AdvanceAndGate(t *testing.T) {
	setupProfile(t)

	out, err := execute(t, "advance", "--format", "json")
	require.NoError(t, err)

	var data struct {
		Advanced bool `json:"advanced"`
		Step     int  `json:"step"`
	}
	decodeData(t, out, &data)
	assert.True(t, data.Advanced)
	assert.Equal(t, 0, data.Step)

	// Second advance is blocked by the unresolved overlay.
	_, err = execute(t, "advance")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_OverlayAcceptUnblocksAdvance(t *testing.T) {
	setupProfile(t)

	_, err := execute(t, "advance")
	require.NoError(t, err)

	out, err := execute(t, "overlay", "accept", "--format", "json")
	require.NoError(t, err)

	var accepted struct {
		Site    string `json:"site"`
		Choice  string `json:"choice"`
		ShowCMP bool   `json:"show_cmp"`
	}
	decodeData(t, out, &accepted)
	assert.NotEmpty(t, accepted.Site)
	assert.Equal(t, "ACCEPT_ALL", accepted.Choice)
	assert.False(t, accepted.ShowCMP)

	out, err = execute(t, "advance", "--format", "json")
	require.NoError(t, err)
	var data struct {
		Step int `json:"step"`
	}
	decodeData(t, out, &data)
	assert.Equal(t, 1, data.Step)
}

func TestCLI_OverlayWithoutActiveStep(t *testing.T) {
	setupProfile(t)

	_, err := execute(t, "overlay", "accept")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_HistoryListAndRetract(t *testing.T) {
	setupProfile(t)

	_, err := execute(t, "advance")
	require.NoError(t, err)
	out, err := execute(t, "overlay", "reject", "--format", "json")
	require.NoError(t, err)

	var rejected struct {
		Site string `json:"site"`
	}
	decodeData(t, out, &rejected)

	out, err = execute(t, "history", "list", "--format", "json")
	require.NoError(t, err)
	var history map[string]struct {
		Choice string `json:"choice"`
	}
	decodeData(t, out, &history)
	require.Contains(t, history, rejected.Site)
	assert.Equal(t, "REJECT_ALL", history[rejected.Site].Choice)

	_, err = execute(t, "history", "retract", rejected.Site)
	require.NoError(t, err)

	out, err = execute(t, "history", "list", "--format", "json")
	require.NoError(t, err)
	decodeData(t, out, &history)
	assert.Equal(t, "RETRACTED", history[rejected.Site].Choice)

	// Retracting twice is rejected.
	_, err = execute(t, "history", "retract", rejected.Site)
	require.Error(t, err)
}

func TestCLI_ResetRequiresConfirmation(t *testing.T) {
	setupProfile(t)

	_, err := execute(t, "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCLI_ResetStartsFresh(t *testing.T) {
	setupProfile(t)

	out, err := execute(t, "status", "--format", "json")
	require.NoError(t, err)
	var before struct {
		SessionID string `json:"session_id"`
	}
	decodeData(t, out, &before)

	_, err = execute(t, "advance")
	require.NoError(t, err)

	_, err = execute(t, "reset", "--yes")
	require.NoError(t, err)

	out, err = execute(t, "status", "--format", "json")
	require.NoError(t, err)
	var after struct {
		SessionID string `json:"session_id"`
		Step      int    `json:"step"`
	}
	decodeData(t, out, &after)
	assert.NotEqual(t, before.SessionID, after.SessionID)
	assert.Equal(t, -1, after.Step)
}
