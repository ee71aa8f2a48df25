package domain

import (
	"context"
	"time"
)

// Role is the author of a chat turn.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single turn sent to the chat model.
type ChatMessage struct {
	Role    Role
	Content string
}

// CompletionRequest is the input to a chat model call.
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

// CompletionResult is the chat model output with token usage.
type CompletionResult struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ChatCompleter generates a reply for a conversation.
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// Turn is one stored message of a chat session.
type Turn struct {
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}
