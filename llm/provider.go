package llm

import (
	"context"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single chat completion request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []Message     `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// ChatUsage reports upstream token accounting.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the assistant's reply to a ChatRequest.
type ChatResponse struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Content  string    `json:"content"`
	Usage    ChatUsage `json:"usage,omitempty"`
}

// Provider is a chat backend adapter. Construction never performs network
// I/O; a misconfigured credential surfaces on the first Chat call.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Chat performs one chat completion.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
