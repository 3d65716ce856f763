// Package rtc implements the agent.RoomControl capability over the
// LiveKit server SDK: room connection, RPC registration, reliable data
// channel text, and an Opus audio track fed from TTS output.
package rtc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/BaSui01/voiceloop/agent"
)

// Config carries the connection parameters for one room session.
type Config struct {
	URL       string // ws:// or wss:// LiveKit server URL
	APIKey    string
	APISecret string
	RoomName  string
	Identity  string
}

// Room is a LiveKit-backed agent.RoomControl. One instance per session.
type Room struct {
	cfg    Config
	logger *zap.Logger
	room   *lksdk.Room

	mu           sync.Mutex
	textHandlers map[string]agent.TextHandler
	opts         agent.StartOptions
	provider     *sampleProvider
	audioTrack   *lksdk.LocalTrackPublication

	disconnected chan struct{}
	closeOnce    sync.Once
}

var _ agent.RoomControl = (*Room)(nil)

// Connect joins the configured room as the agent participant. The
// returned Room is ready for RPC registration immediately.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Room, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Room{
		cfg:          cfg,
		logger:       logger.With(zap.String("room", cfg.RoomName)),
		textHandlers: make(map[string]agent.TextHandler),
		disconnected: make(chan struct{}),
	}

	callback := &lksdk.RoomCallback{
		OnParticipantConnected: func(p *lksdk.RemoteParticipant) {
			r.logger.Info("participant connected", zap.String("identity", p.Identity()))
		},
		OnParticipantDisconnected: func(p *lksdk.RemoteParticipant) {
			r.logger.Info("participant disconnected", zap.String("identity", p.Identity()))
		},
		OnDisconnected: func() {
			r.closeOnce.Do(func() { close(r.disconnected) })
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnDataPacket: r.onDataPacket,
		},
	}

	room, err := lksdk.ConnectToRoom(cfg.URL, lksdk.ConnectInfo{
		APIKey:              cfg.APIKey,
		APISecret:           cfg.APISecret,
		RoomName:            cfg.RoomName,
		ParticipantIdentity: cfg.Identity,
		ParticipantName:     cfg.Identity,
	}, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to room %s: %w", cfg.RoomName, err)
	}

	r.room = room
	r.logger.Info("connected to room", zap.String("identity", cfg.Identity))
	return r, nil
}

// RegisterRPC exposes a named method to clients over the SDK's RPC
// channel.
func (r *Room) RegisterRPC(method string, handler agent.RPCHandler) error {
	return r.room.RegisterRpcMethod(method,
		func(data lksdk.RpcInvocationData) (string, error) {
			return handler(context.Background(), data.CallerIdentity, data.Payload)
		})
}

// OnText subscribes a handler to inbound data packets on a topic.
func (r *Room) OnText(topic string, handler agent.TextHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textHandlers[topic] = handler
}

func (r *Room) onDataPacket(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
	pkt, ok := data.(*lksdk.UserDataPacket)
	if !ok {
		return
	}

	r.mu.Lock()
	handler := r.textHandlers[pkt.Topic]
	textIn := r.opts.TextInput
	r.mu.Unlock()
	if handler == nil || !textIn {
		return
	}

	// handlers run the generation pipeline; keep the SDK callback free
	go handler(context.Background(), params.SenderIdentity, string(pkt.Payload))
}

// PublishText sends text on the reliable data channel under a topic.
func (r *Room) PublishText(ctx context.Context, topic, text string) error {
	r.mu.Lock()
	textOut := r.opts.TextOutput
	r.mu.Unlock()
	if !textOut {
		return nil
	}

	return r.room.LocalParticipant.PublishData([]byte(text),
		lksdk.WithDataPublishReliable(true),
		lksdk.WithDataPublishTopic(topic))
}

// PublishAudio streams one synthesis result into the room's audio track,
// creating the track on first use. Raw PCM is assumed s16le mono 24kHz;
// WAV input carries its own rate in the header.
func (r *Room) PublishAudio(ctx context.Context, audio io.Reader, format string) error {
	r.mu.Lock()
	audioOut := r.opts.AudioOutput
	r.mu.Unlock()
	if !audioOut {
		return nil
	}

	if err := r.ensureAudioTrack(); err != nil {
		return err
	}
	r.mu.Lock()
	provider := r.provider
	r.mu.Unlock()

	sampleRate := defaultSampleRate
	if format == "wav" {
		info, err := readWAVHeader(audio)
		if err != nil {
			return err
		}
		if info.channels != 1 {
			return fmt.Errorf("unsupported wav channel count %d", info.channels)
		}
		sampleRate = info.sampleRate
	}

	return provider.streamPCM(ctx, audio, sampleRate)
}

// ensureAudioTrack lazily publishes the voice track. Published with the
// microphone source so browsers treat it as a voice track.
func (r *Room) ensureAudioTrack() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audioTrack != nil {
		return nil
	}

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType: webrtc.MimeTypeOpus,
	})
	if err != nil {
		return fmt.Errorf("failed to create audio track: %w", err)
	}

	provider := newSampleProvider()
	if err := track.StartWrite(provider, func() {
		r.logger.Debug("audio track write completed")
	}); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	publication, err := r.room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "agent-voice",
		Source: livekit.TrackSource_MICROPHONE,
	})
	if err != nil {
		return fmt.Errorf("failed to publish audio track: %w", err)
	}

	r.provider = provider
	r.audioTrack = publication
	r.logger.Info("audio track published", zap.String("sid", publication.SID()))
	return nil
}

// Configure records the session's start options. Text and audio publish
// paths consult them on every call.
func (r *Room) Configure(opts agent.StartOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
	return nil
}

// Disconnected is closed when the transport connection ends.
func (r *Room) Disconnected() <-chan struct{} {
	return r.disconnected
}

// Close disconnects from the room and, when the session asked for
// CloseOnDisconnect, deletes the room server-side so a reconnecting
// client gets a fresh session instead of stale state.
func (r *Room) Close(ctx context.Context) {
	r.mu.Lock()
	provider := r.provider
	closeRoom := r.opts.CloseOnDisconnect
	r.mu.Unlock()

	if provider != nil {
		provider.Close()
	}
	r.room.Disconnect()
	r.closeOnce.Do(func() { close(r.disconnected) })

	if !closeRoom {
		return
	}

	svc := lksdk.NewRoomServiceClient(httpURL(r.cfg.URL), r.cfg.APIKey, r.cfg.APISecret)
	if _, err := svc.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: r.cfg.RoomName}); err != nil {
		r.logger.Warn("failed to delete room", zap.Error(err))
	} else {
		r.logger.Info("room deleted")
	}
}

// httpURL maps a ws(s) server URL to its http(s) API endpoint.
func httpURL(wsURL string) string {
	switch {
	case strings.HasPrefix(wsURL, "ws://"):
		return "http://" + strings.TrimPrefix(wsURL, "ws://")
	case strings.HasPrefix(wsURL, "wss://"):
		return "https://" + strings.TrimPrefix(wsURL, "wss://")
	default:
		return wsURL
	}
}
