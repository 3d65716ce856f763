package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const testDocument = `
app:
  default_system_prompt: "You are a helpful voice assistant."
  room_name: voice-room
llm:
  model: gpt-4o-mini
  models:
    - id: gpt-4o-mini
      label: GPT-4o mini
    - id: ollama/llama3.2
      label: Llama 3.2 (local)
tts:
  voice: kokoro_af_heart
  voices:
    - id: kokoro_af_heart
      label: Heart (Kokoro)
      engine: kokoro
    - id: cartesia_sonic
      label: Sonic (Cartesia)
      engine: cartesia
    - id: piper_lessac
      label: Lessac (Piper)
      engine: piper
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o644))
	return path
}

func readPersisted(t *testing.T, path string) Config {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	return cfg
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "voice-room", cfg.App.RoomName)
	assert.Equal(t, "http://localhost:8880/v1", cfg.TTS.Kokoro.BaseURL)
	assert.Equal(t, "kokoro", cfg.TTS.Kokoro.Model)
	assert.Equal(t, 1.0, cfg.TTS.Kokoro.Speed)
	assert.Equal(t, "not-needed", cfg.TTS.Kokoro.APIKey)
	assert.Equal(t, "http://localhost:5000", cfg.TTS.Piper.BaseURL)
}

func TestNewStoreRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := `
app:
  room_name: voice-room
llm:
  model: not-in-catalog
  models:
    - id: gpt-4o-mini
      label: GPT-4o mini
tts:
  voice: text_only
`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := NewStore(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-in-catalog")
}

func TestStoreSetModel(t *testing.T) {
	path := writeTestConfig(t)
	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	t.Run("valid id persists", func(t *testing.T) {
		require.NoError(t, store.SetModel("ollama/llama3.2"))

		assert.Equal(t, "ollama/llama3.2", store.Snapshot().LLM.Model)
		assert.Equal(t, "ollama/llama3.2", readPersisted(t, path).LLM.Model)
	})

	t.Run("unknown id mutates nothing", func(t *testing.T) {
		err := store.SetModel("gpt-does-not-exist")
		require.Error(t, err)

		var unknown *UnknownIDError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "model", unknown.Field)
		assert.Equal(t, []string{"gpt-4o-mini", "ollama/llama3.2"}, unknown.Allowed)

		assert.Equal(t, "ollama/llama3.2", store.Snapshot().LLM.Model)
		assert.Equal(t, "ollama/llama3.2", readPersisted(t, path).LLM.Model)
	})
}

func TestStoreSetVoice(t *testing.T) {
	path := writeTestConfig(t)
	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	t.Run("valid id persists", func(t *testing.T) {
		require.NoError(t, store.SetVoice("cartesia_sonic"))

		assert.Equal(t, "cartesia_sonic", store.Snapshot().TTS.Voice)
		assert.Equal(t, "cartesia_sonic", readPersisted(t, path).TTS.Voice)
	})

	t.Run("text_only sentinel is always allowed", func(t *testing.T) {
		require.NoError(t, store.SetVoice(VoiceTextOnly))
		assert.Equal(t, VoiceTextOnly, readPersisted(t, path).TTS.Voice)
	})

	t.Run("unknown id mutates nothing", func(t *testing.T) {
		err := store.SetVoice("ghost_voice")
		require.Error(t, err)

		var unknown *UnknownIDError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "voice", unknown.Field)
		assert.Contains(t, unknown.Allowed, VoiceTextOnly)

		assert.Equal(t, VoiceTextOnly, store.Snapshot().TTS.Voice)
		assert.Equal(t, VoiceTextOnly, readPersisted(t, path).TTS.Voice)
	})
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	store, err := NewStore(writeTestConfig(t), zap.NewNop())
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.LLM.Models[0].ID = "mutated"
	snap.TTS.Voices[0].Engine = "mutated"

	fresh := store.Snapshot()
	assert.Equal(t, "gpt-4o-mini", fresh.LLM.Models[0].ID)
	assert.Equal(t, "kokoro", fresh.TTS.Voices[0].Engine)
}

func TestFindVoice(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	voice, ok := cfg.FindVoice("piper_lessac")
	require.True(t, ok)
	assert.Equal(t, "piper", voice.Engine)

	_, ok = cfg.FindVoice("nope")
	assert.False(t, ok)
}
