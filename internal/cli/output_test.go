package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"state": "intro"}
	err := formatter.Success(data, func(io.Writer) {})
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "intro", resp.Data["state"])
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(nil, func(w io.Writer) {
		fmt.Fprintln(w, "Session complete")
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Session complete")
}

func TestExitError_Message(t *testing.T) {
	err := NewExitError(ExitFailure, "advance blocked")
	assert.Equal(t, "advance blocked", err.Error())

	wrapped := WrapExitError(ExitCommandError, "open store", errors.New("locked"))
	assert.Equal(t, "open store: locked", wrapped.Error())
	assert.Equal(t, "locked", wrapped.Unwrap().Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	// Wrapped ExitErrors still carry their code.
	inner := NewExitError(ExitFailure, "blocked")
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("context: %w", inner)))
}
