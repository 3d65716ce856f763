package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/config"
	"github.com/BaSui01/voiceloop/tts"
)

// TTSStatusHandler reports the health of the currently active voice's
// engine. Cloud engines are assumed reachable and never probed; local
// engines get a bounded reachability probe per request.
type TTSStatusHandler struct {
	store  *config.Store
	logger *zap.Logger
	// probe is swappable in tests
	probe func(ctx context.Context, url string, timeout time.Duration) error
}

// NewTTSStatusHandler creates a status handler backed by the shared store.
func NewTTSStatusHandler(store *config.Store, logger *zap.Logger) *TTSStatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TTSStatusHandler{
		store:  store,
		logger: logger.With(zap.String("handler", "tts_status")),
		probe:  tts.Probe,
	}
}

type ttsStatusResponse struct {
	Engine string `json:"engine"`
	Status string `json:"status"`
	Label  string `json:"label"`
}

// ServeHTTP handles GET /api/tts/status.
func (h *TTSStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.store.Snapshot()

	if cfg.TTS.Voice == config.VoiceTextOnly {
		WriteJSON(w, http.StatusOK, ttsStatusResponse{Engine: "none", Status: "ok", Label: "Text only"})
		return
	}

	voice, ok := cfg.FindVoice(cfg.TTS.Voice)
	if !ok {
		WriteJSON(w, http.StatusOK, ttsStatusResponse{Status: "error", Label: "unknown voice"})
		return
	}

	if !tts.KnownEngine(voice.Engine) {
		WriteJSON(w, http.StatusOK, ttsStatusResponse{Engine: voice.Engine, Status: "error", Label: "unknown engine"})
		return
	}

	url, probed := tts.HealthURL(voice.Engine, &cfg.TTS)
	if !probed {
		// cloud engine: always ok, no network call
		WriteJSON(w, http.StatusOK, ttsStatusResponse{Engine: voice.Engine, Status: "ok", Label: voice.Label})
		return
	}

	status := "online"
	if err := h.probe(r.Context(), url, tts.ProbeTimeout); err != nil {
		h.logger.Debug("engine probe failed",
			zap.String("engine", voice.Engine),
			zap.Error(err))
		status = "offline"
	}
	WriteJSON(w, http.StatusOK, ttsStatusResponse{Engine: voice.Engine, Status: status, Label: voice.Label})
}
