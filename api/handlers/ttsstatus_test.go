package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ttsStatus(t *testing.T, h *TTSStatusHandler) ttsStatusResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tts/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body ttsStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTTSStatusTextOnly(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetVoice("text_only"))

	h := NewTTSStatusHandler(store, nil)
	h.probe = func(ctx context.Context, url string, timeout time.Duration) error {
		t.Fatal("text_only must not probe")
		return nil
	}

	body := ttsStatus(t, h)
	assert.Equal(t, "ok", body.Status)
}

func TestTTSStatusCloudEngineNeverProbes(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetVoice("cartesia_sonic"))

	h := NewTTSStatusHandler(store, nil)
	h.probe = func(ctx context.Context, url string, timeout time.Duration) error {
		t.Fatal("cloud engine must not probe")
		return nil
	}

	body := ttsStatus(t, h)
	assert.Equal(t, "cartesia", body.Engine)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "Cartesia Sonic", body.Label)
}

func TestTTSStatusLocalEngineOnline(t *testing.T) {
	store := newTestStore(t)

	var probedURL string
	h := NewTTSStatusHandler(store, nil)
	h.probe = func(ctx context.Context, url string, timeout time.Duration) error {
		probedURL = url
		return nil
	}

	body := ttsStatus(t, h)
	assert.Equal(t, "kokoro", body.Engine)
	assert.Equal(t, "online", body.Status)
	assert.Equal(t, "http://localhost:8880/health", probedURL)
}

func TestTTSStatusLocalEngineOffline(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetVoice("piper_lessac"))

	h := NewTTSStatusHandler(store, nil)
	h.probe = func(ctx context.Context, url string, timeout time.Duration) error {
		return errors.New("connection refused")
	}

	body := ttsStatus(t, h)
	assert.Equal(t, "piper", body.Engine)
	assert.Equal(t, "offline", body.Status)
}
