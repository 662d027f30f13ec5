package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consentlab/studyctl/internal/catalog"
	"github.com/consentlab/studyctl/internal/event"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	r, err := NewRunner(filepath.Join(t.TempDir(), "test.db"), catalog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func step(do string) Step { return Step{Do: do} }

func elapse(d string) Step { return Step{Do: "elapse", Duration: d} }

func TestRunner_GateBlocksUntilResolved(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(Scenario{
		Name: "gate",
		Steps: []Step{
			step("advance"),
			elapse("1500ms"),
			step("advance"), // blocked: overlay unresolved
			step("accept_all"),
			step("advance"),
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 5)
	blocked := res.Outcomes[2]
	assert.Equal(t, 0, blocked.Step)
	assert.True(t, blocked.Warning)

	unblocked := res.Outcomes[4]
	assert.Equal(t, 1, unblocked.Step)
	assert.False(t, unblocked.Warning)

	var sawValidation bool
	for _, ev := range res.Events {
		if ev.Type == event.TypeValidationFailed {
			sawValidation = true
		}
	}
	assert.True(t, sawValidation)
}

func TestRunner_LoadingSuppressesOverlay(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(Scenario{
		Name: "loading",
		Steps: []Step{
			step("advance"),
			elapse("1s"),
			elapse("500ms"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "loading", res.Outcomes[0].State)
	assert.Equal(t, "loading", res.Outcomes[1].State, "1s is not enough")
	assert.Equal(t, "active_step", res.Outcomes[2].State)

	// The overlay mounts only after loading ends.
	shownAt := -1
	for i, ev := range res.Events {
		if ev.Type == event.TypeCMPShown {
			shownAt = i
		}
	}
	require.GreaterOrEqual(t, shownAt, 0)
	assert.Equal(t, len(res.Events)-1, shownAt)
}

func TestRunner_ResizeGuard(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(Scenario{
		Name: "resize",
		Steps: []Step{
			{Do: "resize", TooSmall: true},
			{Do: "resize", TooSmall: true},
			{Do: "resize", TooSmall: false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "too_small", res.Outcomes[0].State)
	assert.Equal(t, "intro", res.Outcomes[2].State)

	var count int
	for _, ev := range res.Events {
		if ev.Type == event.TypePageTooSmall {
			count++
		}
	}
	assert.Equal(t, 1, count, "guard event is edge-triggered")
}

func TestRunner_OverlayActionInWrongLayerFails(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(Scenario{
		Name: "wrong_layer",
		Steps: []Step{
			step("advance"),
			elapse("1500ms"),
			step("save_custom"), // second-layer action in the first layer
		},
	})
	assert.ErrorContains(t, err, "save_custom")
}

func TestRunner_OverlayActionWithoutOverlayFails(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(Scenario{
		Name:  "no_overlay",
		Steps: []Step{step("accept_all")},
	})
	assert.ErrorContains(t, err, "no overlay mounted")
}

func TestRunner_UnknownActionFails(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(Scenario{
		Name:  "unknown",
		Steps: []Step{step("teleport")},
	})
	assert.ErrorContains(t, err, "unknown action")
}

func TestRunner_ReloadPreservesSession(t *testing.T) {
	r := newTestRunner(t)

	id := r.Controller().SessionID()
	order := r.Controller().Order()

	res, err := r.Run(Scenario{
		Name: "reload",
		Steps: []Step{
			step("advance"),
			elapse("1500ms"),
			step("reload"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, id, r.Controller().SessionID())
	assert.Equal(t, order, r.Controller().Order())
	assert.Equal(t, 0, res.Outcomes[2].Step)

	last := res.Events[len(res.Events)-2]
	assert.Equal(t, event.TypePageReloaded, last.Type, "reload precedes the overlay remount")
}
