package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consentlab/studyctl/internal/event"
)

func TestHTTP_PostsRecord(t *testing.T) {
	var (
		gotBody   []byte
		gotAPIKey string
		gotAuth   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "secret")
	rec := event.Record{
		SessionID:     "sess-1",
		DesignVariant: event.DesignBaseline,
		SiteName:      "zalando",
		StepIndex:     2,
		Type:          event.TypeButtonClick,
		Target:        event.TargetNextButton,
	}
	require.NoError(t, h.Emit(context.Background(), rec))

	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, "Bearer secret", gotAuth)

	var decoded event.Record
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestHTTP_RemoteRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "")
	err := h.Emit(context.Background(), event.Record{Type: event.TypeClick})
	assert.Error(t, err)
}

func TestHTTP_NoTokenOmitsAuthHeaders(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != "" || r.Header.Get("apikey") != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "")
	require.NoError(t, h.Emit(context.Background(), event.Record{Type: event.TypeClick}))
	assert.False(t, sawAuth)
}
