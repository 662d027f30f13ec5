package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	assert.True(t, TypeCMPShown.IsValid())
	assert.True(t, TypeSessionEnded.IsValid())
	assert.True(t, TypeConsentRetracted.IsValid())
	assert.False(t, Type("made_up").IsValid())
	assert.False(t, Type("").IsValid())
}

func TestRecord_WireFormat(t *testing.T) {
	rec := Record{
		SessionID:     "sess-1",
		DesignVariant: DesignBaseline,
		SiteName:      "zalando",
		StepIndex:     2,
		Type:          TypeButtonClick,
		Target:        TargetNextButton,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	// The backend log table stores the step index under trial_index.
	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, float64(2), wire["trial_index"])
	assert.Equal(t, "button_click", wire["event_type"])
	assert.Equal(t, "next_button", wire["event_target"])
	assert.Equal(t, "baseline", wire["design_variant"])
}
