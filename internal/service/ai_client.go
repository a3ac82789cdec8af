package service

import (
	"context"
)

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatClient is the interface for text generation providers
type ChatClient interface {
	// Complete performs a non-streaming chat completion and returns the
	// full assistant message content.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)

	// CompleteStream performs a streaming chat completion. The callback
	// receives each content token in arrival order; the full concatenated
	// content is returned once the stream ends.
	CompleteStream(ctx context.Context, messages []ChatMessage, onToken func(token string) error) (string, error)

	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// Ensure OpenAIClient implements ChatClient
var _ ChatClient = (*OpenAIClient)(nil)
