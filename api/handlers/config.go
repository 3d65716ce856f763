package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/config"
)

// ConfigHandler exposes the runtime configuration: a read projection and
// two validated, persisted update endpoints.
type ConfigHandler struct {
	store  *config.Store
	logger *zap.Logger
}

// NewConfigHandler creates a config handler backed by the shared store.
func NewConfigHandler(store *config.Store, logger *zap.Logger) *ConfigHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigHandler{
		store:  store,
		logger: logger.With(zap.String("handler", "config")),
	}
}

type configResponse struct {
	DefaultSystemPrompt string               `json:"default_system_prompt"`
	RoomName            string               `json:"room_name"`
	ActiveModel         string               `json:"active_model"`
	Models              []config.ModelOption `json:"models"`
	ActiveVoice         string               `json:"active_voice"`
	Voices              []config.VoiceOption `json:"voices"`
}

// Get handles GET /api/config: a pure projection, no side effects.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.store.Snapshot()
	WriteJSON(w, http.StatusOK, configResponse{
		DefaultSystemPrompt: cfg.App.DefaultSystemPrompt,
		RoomName:            cfg.App.RoomName,
		ActiveModel:         cfg.LLM.Model,
		Models:              cfg.LLM.Models,
		ActiveVoice:         cfg.TTS.Voice,
		Voices:              cfg.TTS.Voices,
	})
}

// SetModel handles POST /api/config/model with body {"model": id}.
func (h *ConfigHandler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetModel(req.Model); err != nil {
		h.writeUpdateError(w, err)
		return
	}

	h.logger.Info("active model updated", zap.String("model", req.Model))
	WriteJSON(w, http.StatusOK, map[string]string{"active_model": req.Model})
}

// SetVoice handles POST /api/config/voice with body {"voice": id}.
func (h *ConfigHandler) SetVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Voice string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetVoice(req.Voice); err != nil {
		h.writeUpdateError(w, err)
		return
	}

	h.logger.Info("active voice updated", zap.String("voice", req.Voice))
	WriteJSON(w, http.StatusOK, map[string]string{"active_voice": req.Voice})
}

// writeUpdateError maps store errors to the wire: catalog misses become a
// 400 carrying the allowed set, anything else (persistence failure) a 500.
func (h *ConfigHandler) writeUpdateError(w http.ResponseWriter, err error) {
	var unknown *config.UnknownIDError
	if errors.As(err, &unknown) {
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error:   unknown.Error(),
			Allowed: unknown.Allowed,
		})
		return
	}
	h.logger.Error("config update failed", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "failed to update config")
}
