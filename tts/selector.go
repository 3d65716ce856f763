package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/config"
)

// ErrEngineUnavailable reports that a self-hosted engine failed its
// reachability probe. Callers treat it as a signal to degrade the session
// to text-only rather than fail session start.
var ErrEngineUnavailable = errors.New("tts engine unavailable")

type engineSpec struct {
	// healthURL derives the engine's probe target; empty means the engine
	// is cloud-hosted and never probed.
	healthURL func(cfg *config.TTSConfig) string
	build     func(cfg *config.TTSConfig, logger *zap.Logger) Provider
}

// engines maps engine names to their probe and constructor. Adding a
// backend is one entry here plus its adapter file.
var engines = map[string]engineSpec{
	"cartesia": {
		build: func(cfg *config.TTSConfig, logger *zap.Logger) Provider {
			return NewCartesiaProvider(CartesiaConfig{
				APIKey: os.Getenv("CARTESIA_API_KEY"),
				Model:  cfg.Cartesia.Model,
				Voice:  cfg.Cartesia.Voice,
			}, logger)
		},
	},
	"kokoro": {
		healthURL: func(cfg *config.TTSConfig) string {
			return kokoroHealthURL(cfg.Kokoro.BaseURL)
		},
		build: func(cfg *config.TTSConfig, logger *zap.Logger) Provider {
			return NewKokoroProvider(KokoroConfig{
				BaseURL: cfg.Kokoro.BaseURL,
				Model:   cfg.Kokoro.Model,
				Voice:   cfg.Kokoro.Voice,
				Speed:   cfg.Kokoro.Speed,
				APIKey:  cfg.Kokoro.APIKey,
			}, logger)
		},
	},
	"piper": {
		healthURL: func(cfg *config.TTSConfig) string {
			return strings.TrimRight(cfg.Piper.BaseURL, "/")
		},
		build: func(cfg *config.TTSConfig, logger *zap.Logger) Provider {
			return NewPiperProvider(PiperConfig{BaseURL: cfg.Piper.BaseURL}, logger)
		},
	},
}

// EngineNames returns the supported engine names, sorted.
func EngineNames() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownEngine reports whether the name maps to a supported engine.
func KnownEngine(name string) bool {
	_, ok := engines[name]
	return ok
}

// HealthURL returns the probe target for a self-hosted engine. The second
// return is false for cloud engines and unknown names; those are never
// probed.
func HealthURL(engine string, cfg *config.TTSConfig) (string, bool) {
	eng, ok := engines[engine]
	if !ok || eng.healthURL == nil {
		return "", false
	}
	return eng.healthURL(cfg), true
}

// SelectEngine returns a ready-to-use client for the named engine, or
// ErrEngineUnavailable when a self-hosted engine fails its probe. An
// unknown engine name is a configuration error and is never swallowed.
// The caller receives either a usable client or an explicit absence; never
// a client already known to be unreachable.
func SelectEngine(ctx context.Context, engine string, cfg *config.TTSConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	eng, ok := engines[engine]
	if !ok {
		return nil, fmt.Errorf("unknown tts engine %q, supported engines: %s",
			engine, strings.Join(EngineNames(), ", "))
	}

	if eng.healthURL != nil {
		url := eng.healthURL(cfg)
		if err := Probe(ctx, url, ProbeTimeout); err != nil {
			logger.Warn("tts engine unreachable, degrading to text-only",
				zap.String("engine", engine),
				zap.String("health_url", url),
				zap.Error(err))
			return nil, fmt.Errorf("%s: %w", engine, ErrEngineUnavailable)
		}
	}

	return eng.build(cfg, logger), nil
}

// kokoroHealthURL derives the server health endpoint from the API base
// URL: the /v1 suffix belongs to the OpenAI-compatible API, the health
// route lives at the server root.
func kokoroHealthURL(baseURL string) string {
	root := strings.TrimRight(baseURL, "/")
	root = strings.TrimSuffix(root, "/v1")
	return root + "/health"
}
