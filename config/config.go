package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// VoiceTextOnly is the sentinel voice id that disables speech synthesis
// entirely. It is always a valid value for TTS.Voice even though it never
// appears in the voice catalog.
const VoiceTextOnly = "text_only"

// Config is the complete shared configuration document.
type Config struct {
	App AppConfig `yaml:"app"`
	LLM LLMConfig `yaml:"llm"`
	TTS TTSConfig `yaml:"tts"`
}

// AppConfig holds fields that are immutable at runtime.
type AppConfig struct {
	// DefaultSystemPrompt seeds the agent's instructions for every new session.
	DefaultSystemPrompt string `yaml:"default_system_prompt"`

	// RoomName is the fixed LiveKit room all access tokens are scoped to.
	RoomName string `yaml:"room_name"`
}

// ModelOption is one entry in the LLM model catalog.
type ModelOption struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// LLMConfig selects the active chat model from a closed catalog.
type LLMConfig struct {
	// Model is the active model identifier. Invariant: always a member of
	// Models after a successful update.
	Model  string        `yaml:"model"`
	Models []ModelOption `yaml:"models"`
}

// VoiceOption is one entry in the TTS voice catalog. Engine names the
// synthesis backend that serves this voice.
type VoiceOption struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Engine string `yaml:"engine" json:"engine"`
}

// TTSConfig selects the active voice and carries one connection block per
// synthesis engine.
type TTSConfig struct {
	// Voice is the active voice identifier, or VoiceTextOnly.
	Voice  string        `yaml:"voice"`
	Voices []VoiceOption `yaml:"voices"`

	Cartesia CartesiaConfig `yaml:"cartesia"`
	Kokoro   KokoroConfig   `yaml:"kokoro"`
	Piper    PiperConfig    `yaml:"piper"`
}

// CartesiaConfig configures the Cartesia cloud TTS engine. The API key is
// read from the CARTESIA_API_KEY environment variable, not stored here.
type CartesiaConfig struct {
	Model string `yaml:"model"`
	Voice string `yaml:"voice"`
}

// KokoroConfig configures a self-hosted Kokoro-FastAPI server. Kokoro
// exposes an OpenAI-compatible /v1/audio/speech endpoint.
type KokoroConfig struct {
	BaseURL string  `yaml:"base_url"`
	Model   string  `yaml:"model"`
	Voice   string  `yaml:"voice"`
	Speed   float64 `yaml:"speed"`
	APIKey  string  `yaml:"api_key"`
}

// PiperConfig configures a self-hosted Piper HTTP server.
type PiperConfig struct {
	BaseURL string `yaml:"base_url"`
}

// UnknownIDError reports an update value that is not in the corresponding
// catalog. It carries the allowed set so callers can surface it verbatim.
type UnknownIDError struct {
	Field   string
	ID      string
	Allowed []string
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown %s %q, allowed: %s", e.Field, e.ID, strings.Join(e.Allowed, ", "))
}

// Load reads and parses the configuration document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TTS.Kokoro.BaseURL == "" {
		c.TTS.Kokoro.BaseURL = "http://localhost:8880/v1"
	}
	if c.TTS.Kokoro.Model == "" {
		c.TTS.Kokoro.Model = "kokoro"
	}
	if c.TTS.Kokoro.Voice == "" {
		c.TTS.Kokoro.Voice = "af_heart"
	}
	if c.TTS.Kokoro.Speed == 0 {
		c.TTS.Kokoro.Speed = 1.0
	}
	if c.TTS.Kokoro.APIKey == "" {
		// Kokoro-FastAPI does not require a key but the OpenAI-compatible
		// client insists on sending one.
		c.TTS.Kokoro.APIKey = "not-needed"
	}
	if c.TTS.Piper.BaseURL == "" {
		c.TTS.Piper.BaseURL = "http://localhost:5000"
	}
	if c.TTS.Cartesia.Model == "" {
		c.TTS.Cartesia.Model = "sonic-3"
	}
}

// Validate checks the catalog membership invariants.
func (c *Config) Validate() error {
	var errs []string

	if c.App.RoomName == "" {
		errs = append(errs, "app.room_name must not be empty")
	}
	if c.LLM.Model != "" && !contains(c.ModelIDs(), c.LLM.Model) {
		errs = append(errs, fmt.Sprintf("llm.model %q not in llm.models", c.LLM.Model))
	}
	if c.TTS.Voice != "" && c.TTS.Voice != VoiceTextOnly && !contains(c.VoiceIDs(), c.TTS.Voice) {
		errs = append(errs, fmt.Sprintf("tts.voice %q not in tts.voices", c.TTS.Voice))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ModelIDs returns the allowed model identifiers in catalog order.
func (c *Config) ModelIDs() []string {
	ids := make([]string, 0, len(c.LLM.Models))
	for _, m := range c.LLM.Models {
		ids = append(ids, m.ID)
	}
	return ids
}

// VoiceIDs returns the allowed voice identifiers in catalog order.
func (c *Config) VoiceIDs() []string {
	ids := make([]string, 0, len(c.TTS.Voices))
	for _, v := range c.TTS.Voices {
		ids = append(ids, v.ID)
	}
	return ids
}

// FindVoice looks up a voice catalog entry by id.
func (c *Config) FindVoice(id string) (VoiceOption, bool) {
	for _, v := range c.TTS.Voices {
		if v.ID == id {
			return v, true
		}
	}
	return VoiceOption{}, false
}

// Clone returns a deep copy of the document.
func (c *Config) Clone() Config {
	out := *c
	out.LLM.Models = append([]ModelOption(nil), c.LLM.Models...)
	out.TTS.Voices = append([]VoiceOption(nil), c.TTS.Voices...)
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
