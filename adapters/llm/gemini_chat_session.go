package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/shiksha-ai/server/domain/repositories"
)

// GeminiChatSession implements the ChatSession interface
type GeminiChatSession struct {
	llm     *GeminiLLM
	config  repositories.ChatConfig
	history []*genai.Content
}

// Ensure GeminiChatSession implements the ChatSession interface
var _ repositories.ChatSession = (*GeminiChatSession)(nil)

// NewGeminiChatSession creates a new chat session with config and history
func NewGeminiChatSession(llm *GeminiLLM, config repositories.ChatConfig, history []repositories.ChatMessage) *GeminiChatSession {
	return &GeminiChatSession{
		llm:     llm,
		config:  config,
		history: convertRepositoryToGeminiFormat(history),
	}
}

// SendMessage sends a message and gets a response, updating the history
func (s *GeminiChatSession) SendMessage(ctx context.Context, message repositories.ChatMessage) (repositories.ChatMessage, error) {
	userContent := genai.NewContentFromText(message.Content, genai.RoleUser)

	contents := make([]*genai.Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userContent)

	responseText, err := s.llm.generate(ctx, s.config.SystemPrompt, contents, s.config.Temperature)
	if err != nil {
		return repositories.ChatMessage{}, err
	}
	responseText = strings.TrimSpace(responseText)
	if responseText == "" {
		s.llm.logger.Warn("Empty response in chat session")
		return repositories.ChatMessage{}, errEmptyReply
	}

	s.history = append(s.history, userContent, genai.NewContentFromText(responseText, genai.RoleModel))

	s.llm.logger.Info("Chat session message processed",
		zap.Int("message_length", len(message.Content)),
		zap.Int("response_length", len(responseText)),
		zap.Int("history_length", len(s.history)))

	return repositories.ChatMessage{
		Role:    repositories.AssistantRole,
		Content: responseText,
	}, nil
}

// History returns the current conversation history
func (s *GeminiChatSession) History() ([]repositories.ChatMessage, error) {
	return convertGeminiToRepositoryFormat(s.history), nil
}

// convertRepositoryToGeminiFormat converts repository messages to Gemini format
func convertRepositoryToGeminiFormat(messages []repositories.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == repositories.AssistantRole {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// convertGeminiToRepositoryFormat converts Gemini content to repository messages
func convertGeminiToRepositoryFormat(contents []*genai.Content) []repositories.ChatMessage {
	var messages []repositories.ChatMessage
	for _, content := range contents {
		role := repositories.UserRole
		if content.Role == genai.RoleModel {
			role = repositories.AssistantRole
		}

		var text strings.Builder
		for _, part := range content.Parts {
			if part != nil && part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		if text.Len() > 0 {
			messages = append(messages, repositories.ChatMessage{Role: role, Content: text.String()})
		}
	}
	return messages
}
