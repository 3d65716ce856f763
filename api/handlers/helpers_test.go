package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/config"
)

const testDocument = `app:
  default_system_prompt: "You are a helpful assistant."
  room_name: "voice-room"
llm:
  model: "gpt-4o-mini"
  models:
    - id: "gpt-4o-mini"
      label: "GPT-4o mini"
    - id: "ollama/llama3.2"
      label: "Llama 3.2 (local)"
tts:
  voice: "kokoro_af_heart"
  voices:
    - id: "kokoro_af_heart"
      label: "Kokoro Heart"
      engine: "kokoro"
    - id: "cartesia_sonic"
      label: "Cartesia Sonic"
      engine: "cartesia"
    - id: "piper_lessac"
      label: "Piper Lessac"
      engine: "piper"
`

func newTestStore(t *testing.T) *config.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o644))

	store, err := config.NewStore(path, zap.NewNop())
	require.NoError(t, err)
	return store
}
