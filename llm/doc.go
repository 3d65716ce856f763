// Package llm defines the chat provider interface used by agent sessions
// and the request/response types shared by all provider adapters.
package llm
