package agent

import (
	"context"
	"io"
)

// Well-known data topics shared with the browser client.
const (
	// TopicChat carries inbound user text. The browser performs its own
	// speech recognition and sends text; raw audio never reaches us.
	TopicChat = "lk.chat"
	// TopicTranscription carries outbound assistant text.
	TopicTranscription = "lk.transcription"
)

// RPCHandler handles one remote procedure invocation from a client.
type RPCHandler func(ctx context.Context, callerIdentity, payload string) (string, error)

// TextHandler receives one inbound text message on a subscribed topic.
type TextHandler func(ctx context.Context, senderIdentity, text string)

// StartOptions declares what a session enables on its room connection.
type StartOptions struct {
	AudioInput  bool
	AudioOutput bool
	TextInput   bool
	TextOutput  bool
	// CloseOnDisconnect tears the room down when the session ends so a
	// later reconnect gets a fresh session instead of rejoining stale
	// state.
	CloseOnDisconnect bool
}

// RoomControl is the capability surface a session needs from the
// real-time transport. internal/rtc implements it over LiveKit; tests
// implement it in memory.
type RoomControl interface {
	// RegisterRPC exposes a named remote procedure to connected clients.
	// Requires a live connection, so the session registers its handlers
	// only after the transport reports connected.
	RegisterRPC(method string, handler RPCHandler) error

	// OnText subscribes to inbound text on a topic.
	OnText(topic string, handler TextHandler)

	// PublishText sends text to the room on a topic.
	PublishText(ctx context.Context, topic, text string) error

	// PublishAudio streams synthesized audio into the room's audio
	// track. format names the container ("pcm" or "wav").
	PublishAudio(ctx context.Context, audio io.Reader, format string) error

	// Configure applies the session's start options to the connection.
	Configure(opts StartOptions) error
}
