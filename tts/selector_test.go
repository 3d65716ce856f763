package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/voiceloop/config"
)

func ttsConfig() *config.TTSConfig {
	return &config.TTSConfig{
		Cartesia: config.CartesiaConfig{Model: "sonic-3", Voice: "test-voice"},
		Kokoro: config.KokoroConfig{
			BaseURL: "http://127.0.0.1:1/v1",
			Model:   "kokoro",
			Voice:   "af_heart",
			Speed:   1.0,
			APIKey:  "not-needed",
		},
		Piper: config.PiperConfig{BaseURL: "http://127.0.0.1:1"},
	}
}

func TestSelectEngineUnknown(t *testing.T) {
	provider, err := SelectEngine(context.Background(), "espeak", ttsConfig(), nil)

	require.Error(t, err)
	assert.Nil(t, provider)
	assert.NotErrorIs(t, err, ErrEngineUnavailable)
	assert.Contains(t, err.Error(), `unknown tts engine "espeak"`)
	assert.Contains(t, err.Error(), "cartesia, kokoro, piper")
}

func TestSelectEngineCartesiaSkipsProbe(t *testing.T) {
	// cloud engine: no probe, selection succeeds without any network
	provider, err := SelectEngine(context.Background(), "cartesia", ttsConfig(), nil)

	require.NoError(t, err)
	assert.Equal(t, "cartesia", provider.Name())
}

func TestSelectEngineKokoroOnline(t *testing.T) {
	var probed string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := ttsConfig()
	cfg.Kokoro.BaseURL = server.URL + "/v1"

	provider, err := SelectEngine(context.Background(), "kokoro", cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, "kokoro", provider.Name())
	assert.Equal(t, "/health", probed)
}

func TestSelectEngineKokoroOffline(t *testing.T) {
	provider, err := SelectEngine(context.Background(), "kokoro", ttsConfig(), nil)

	require.Error(t, err)
	assert.Nil(t, provider)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestSelectEnginePiperOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := ttsConfig()
	cfg.Piper.BaseURL = server.URL

	provider, err := SelectEngine(context.Background(), "piper", cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, "piper", provider.Name())
}

func TestSelectEnginePiperOffline(t *testing.T) {
	provider, err := SelectEngine(context.Background(), "piper", ttsConfig(), nil)

	require.Error(t, err)
	assert.Nil(t, provider)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestProbeAnyStatusCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// a responding server is reachable even when unhealthy
	assert.NoError(t, Probe(context.Background(), server.URL, time.Second))
}

func TestProbeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	err := Probe(context.Background(), server.URL, 20*time.Millisecond)
	assert.Error(t, err)
}

func TestHealthURL(t *testing.T) {
	cfg := ttsConfig()
	cfg.Kokoro.BaseURL = "http://localhost:8880/v1"
	cfg.Piper.BaseURL = "http://localhost:5000/"

	tests := []struct {
		engine string
		want   string
		probed bool
	}{
		{"kokoro", "http://localhost:8880/health", true},
		{"piper", "http://localhost:5000", true},
		{"cartesia", "", false},
		{"espeak", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			url, ok := HealthURL(tt.engine, cfg)
			assert.Equal(t, tt.probed, ok)
			assert.Equal(t, tt.want, url)
		})
	}
}
