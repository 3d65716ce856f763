package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PiperConfig configures a self-hosted Piper HTTP server.
type PiperConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"` // http://localhost:5000
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// PiperProvider implements TTS against a Piper HTTP server. The server is
// loaded with a single voice model, so per-request voice selection does
// not apply.
type PiperProvider struct {
	cfg    PiperConfig
	client *http.Client
	logger *zap.Logger
}

// NewPiperProvider creates a new Piper provider.
func NewPiperProvider(cfg PiperConfig, logger *zap.Logger) *PiperProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &PiperProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("engine", "piper")),
	}
}

func (p *PiperProvider) Name() string { return "piper" }

// Synthesize converts text to WAV audio. Piper's HTTP server takes the
// text as the request body and answers with a complete WAV file.
func (p *PiperProvider) Synthesize(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/"),
		strings.NewReader(req.Text))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/plain")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("piper tts request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("piper tts error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	return &Response{
		Provider:  p.Name(),
		Format:    "wav",
		Audio:     resp.Body,
		CreatedAt: time.Now(),
	}, nil
}
