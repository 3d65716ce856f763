package handlers

import (
	"net/http"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/config"
)

const defaultTokenTTL = 6 * time.Hour

// TokenHandler mints room access tokens. Any caller can request a token
// for any identity string; authenticating callers is an external trust
// boundary, not solved here.
type TokenHandler struct {
	apiKey    string
	apiSecret string
	serverURL string
	agentName string
	tokenTTL  time.Duration
	store     *config.Store
	logger    *zap.Logger
}

// NewTokenHandler creates a token handler. The key pair comes from
// environment at startup; missing values are a startup failure handled by
// the caller, never checked per request.
func NewTokenHandler(apiKey, apiSecret, serverURL, agentName string, store *config.Store, logger *zap.Logger) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenHandler{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		serverURL: serverURL,
		agentName: agentName,
		tokenTTL:  defaultTokenTTL,
		store:     store,
		logger:    logger.With(zap.String("handler", "token")),
	}
}

type tokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ServeHTTP handles GET /api/token?identity=<id>.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		WriteError(w, http.StatusBadRequest, "identity is required")
		return
	}

	cfg := h.store.Snapshot()
	token, err := h.mint(identity, cfg.App.RoomName)
	if err != nil {
		h.logger.Error("failed to mint token", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}

	h.logger.Info("token issued",
		zap.String("identity", identity),
		zap.String("room", cfg.App.RoomName))
	WriteJSON(w, http.StatusOK, tokenResponse{Token: token, URL: h.serverURL})
}

// mint builds a time-bound join token for the fixed room, with a room
// configuration that dispatches the agent when this identity joins.
func (h *TokenHandler) mint(identity, room string) (string, error) {
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)

	at := auth.NewAccessToken(h.apiKey, h.apiSecret).
		SetIdentity(identity).
		SetKind(livekit.ParticipantInfo_STANDARD).
		SetVideoGrant(grant).
		SetRoomConfig(&livekit.RoomConfiguration{
			Agents: []*livekit.RoomAgentDispatch{{AgentName: h.agentName}},
		}).
		SetValidFor(h.tokenTTL)

	return at.ToJWT()
}
