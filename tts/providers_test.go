package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKokoroSynthesize(t *testing.T) {
	var gotBody speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("pcm-audio-bytes"))
	}))
	defer server.Close()

	p := NewKokoroProvider(KokoroConfig{BaseURL: server.URL + "/v1", Voice: "af_sky", Speed: 1.2}, nil)
	resp, err := p.Synthesize(context.Background(), &Request{Text: "hello world"})

	require.NoError(t, err)
	defer resp.Audio.Close()

	assert.Equal(t, "kokoro", gotBody.Model)
	assert.Equal(t, "hello world", gotBody.Input)
	assert.Equal(t, "af_sky", gotBody.Voice)
	assert.Equal(t, "pcm", gotBody.ResponseFormat)
	assert.Equal(t, 1.2, gotBody.Speed)

	assert.Equal(t, "pcm", resp.Format)
	audio, err := io.ReadAll(resp.Audio)
	require.NoError(t, err)
	assert.Equal(t, "pcm-audio-bytes", string(audio))
}

func TestKokoroSynthesizeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	p := NewKokoroProvider(KokoroConfig{BaseURL: server.URL + "/v1"}, nil)
	_, err := p.Synthesize(context.Background(), &Request{Text: "hello"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestPiperSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "hello world", string(body))
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		w.Write([]byte("RIFF-wav-bytes"))
	}))
	defer server.Close()

	p := NewPiperProvider(PiperConfig{BaseURL: server.URL}, nil)
	resp, err := p.Synthesize(context.Background(), &Request{Text: "hello world"})

	require.NoError(t, err)
	defer resp.Audio.Close()
	assert.Equal(t, "wav", resp.Format)
}

func TestCartesiaSynthesize(t *testing.T) {
	var gotBody cartesiaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tts/bytes", r.URL.Path)
		assert.Equal(t, "Bearer ck-test", r.Header.Get("Authorization"))
		assert.Equal(t, cartesiaVersion, r.Header.Get("Cartesia-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("pcm"))
	}))
	defer server.Close()

	p := NewCartesiaProvider(CartesiaConfig{APIKey: "ck-test", BaseURL: server.URL, Voice: "voice-id"}, nil)
	resp, err := p.Synthesize(context.Background(), &Request{Text: "hi"})

	require.NoError(t, err)
	defer resp.Audio.Close()

	assert.Equal(t, "sonic-3", gotBody.ModelID)
	assert.Equal(t, "hi", gotBody.Transcript)
	assert.Equal(t, "id", gotBody.Voice.Mode)
	assert.Equal(t, "voice-id", gotBody.Voice.ID)
	assert.Equal(t, "pcm_s16le", gotBody.OutputFormat.Encoding)
	assert.Equal(t, 24000, gotBody.OutputFormat.SampleRate)
}
