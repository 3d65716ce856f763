package tts

import (
	"context"
	"io"
	"time"
)

// Request is a single synthesis request. Empty fields fall back to the
// provider's configured defaults.
type Request struct {
	Text  string  `json:"text"`
	Model string  `json:"model,omitempty"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"` // 0.25-4.0
}

// Response carries the synthesized audio stream. Callers own Audio and
// must close it.
type Response struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Format    string        `json:"format"` // pcm, mp3, wav
	Audio     io.ReadCloser `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// Provider is a text-to-speech backend adapter.
type Provider interface {
	// Name returns the engine name.
	Name() string

	// Synthesize converts text to an audio stream.
	Synthesize(ctx context.Context, req *Request) (*Response, error)
}
