package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// KokoroConfig configures a self-hosted Kokoro-FastAPI server. The server
// exposes an OpenAI-compatible /v1/audio/speech endpoint, so the client
// speaks that wire format with a custom base URL.
type KokoroConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"` // http://localhost:8880/v1
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Voice   string        `json:"voice,omitempty" yaml:"voice,omitempty"`
	Speed   float64       `json:"speed,omitempty" yaml:"speed,omitempty"`
	APIKey  string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// KokoroProvider implements TTS against a Kokoro-FastAPI server.
type KokoroProvider struct {
	cfg    KokoroConfig
	client *http.Client
	logger *zap.Logger
}

// NewKokoroProvider creates a new Kokoro provider.
func NewKokoroProvider(cfg KokoroConfig, logger *zap.Logger) *KokoroProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8880/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "kokoro"
	}
	if cfg.Voice == "" {
		cfg.Voice = "af_heart"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	if cfg.APIKey == "" {
		// the server does not require a key but the endpoint expects one
		cfg.APIKey = "not-needed"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &KokoroProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("engine", "kokoro")),
	}
}

func (p *KokoroProvider) Name() string { return "kokoro" }

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// Synthesize converts text to raw PCM audio via the OpenAI-compatible
// speech endpoint.
func (p *KokoroProvider) Synthesize(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	voice := req.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}
	speed := req.Speed
	if speed == 0 {
		speed = p.cfg.Speed
	}

	body := speechRequest{
		Model:          model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: "pcm",
		Speed:          speed,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/audio/speech",
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kokoro tts request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kokoro tts error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	return &Response{
		Provider:  p.Name(),
		Model:     model,
		Format:    "pcm",
		Audio:     resp.Body,
		CreatedAt: time.Now(),
	}, nil
}
