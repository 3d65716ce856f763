// Package tts provides speech-synthesis provider adapters and a selector
// that maps a configured engine name to a ready-to-use client.
//
// Self-hosted engines are probed for reachability before a client is
// constructed; an unreachable engine yields ErrEngineUnavailable so the
// session can degrade to text-only instead of failing to start. An engine
// name outside the known set is a configuration error and fails fast.
package tts
