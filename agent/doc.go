// Package agent holds the per-room conversational session: a mutable
// instruction set, an LLM backend, an optional TTS backend, and the two
// remote procedures a connected client can invoke (update_system_prompt,
// interrupt).
//
// The session talks to the real-time room through the RoomControl
// capability interface rather than the transport SDK directly, so the
// orchestration logic is testable with an in-memory room. The LiveKit
// implementation lives in internal/rtc.
//
// When the configured TTS engine is unreachable the session degrades to
// text-only: generation still runs and responses are still published on
// the text channel, only audio publishing is disabled.
package agent
