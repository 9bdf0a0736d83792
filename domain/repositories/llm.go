package repositories

import "context"

// LargeLanguageModel abstracts any chat/LLM provider
type LargeLanguageModel interface {
	// Generate takes a single prompt and returns the model's reply
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// GenerateChat creates a chat session seeded with history
	GenerateChat(ctx context.Context, config ChatConfig, history []ChatMessage) (ChatSession, error)
}

// GenerateRequest is a one-shot completion request.
type GenerateRequest struct {
	SystemPrompt string
	Prompt       string
	Temperature  float32
}

// ChatConfig configures a chat session.
type ChatConfig struct {
	SystemPrompt string
	Temperature  float32
}

// ChatSession represents an ongoing conversation session
type ChatSession interface {
	SendMessage(ctx context.Context, message ChatMessage) (ChatMessage, error)
	History() ([]ChatMessage, error)
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)
