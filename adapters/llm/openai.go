package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig holds configuration for the OpenAI-compatible adapter
type OpenAIConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Temperature     float32
	MaxOutputTokens int
}

// ValidateOpenAIConfig validates the OpenAIConfig
func ValidateOpenAIConfig(config OpenAIConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}
	return nil
}

// OpenAILLM implements the LargeLanguageModel interface on the chat
// completions API.
type OpenAILLM struct {
	client *openai.Client
	config OpenAIConfig
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*OpenAILLM)(nil)

// NewOpenAILLM creates a new OpenAI LLM instance
func NewOpenAILLM(config OpenAIConfig, logger *zap.Logger) (*OpenAILLM, error) {
	if err := ValidateOpenAIConfig(config); err != nil {
		return nil, err
	}
	if config.Model == "" {
		config.Model = defaultOpenAIModel
		logger.Info("Using default model", zap.String("model", config.Model))
	}
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = defaultMaxTokens
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAILLM{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// Generate sends a single prompt and returns the reply text
func (o *OpenAILLM) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})
	return o.complete(ctx, messages, req.Temperature)
}

// GenerateChat creates a chat session with history
func (o *OpenAILLM) GenerateChat(ctx context.Context, config repositories.ChatConfig, history []repositories.ChatMessage) (repositories.ChatSession, error) {
	return &OpenAIChatSession{
		llm:     o,
		config:  config,
		history: append([]repositories.ChatMessage(nil), history...),
	}, nil
}

func (o *OpenAILLM) complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error) {
	if temperature == 0 {
		temperature = o.config.Temperature
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   o.config.MaxOutputTokens,
	})
	if err != nil {
		err = classifyOpenAIError(err)
		o.logger.Error("Failed to create chat completion", zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in OpenAI response")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", apperr.E(apperr.UpstreamInputRejected, "The request was blocked by content safety filters")
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}
	switch code {
	case http.StatusTooManyRequests:
		return apperr.Wrap(err, apperr.UpstreamQuotaExceeded, "AI service quota exceeded. Please try again later")
	case http.StatusBadRequest:
		return apperr.Wrap(err, apperr.UpstreamInputRejected, "The AI service rejected the input")
	default:
		return fmt.Errorf("openai request failed: %w", err)
	}
}

// OpenAIChatSession implements the ChatSession interface
type OpenAIChatSession struct {
	llm     *OpenAILLM
	config  repositories.ChatConfig
	history []repositories.ChatMessage
}

var _ repositories.ChatSession = (*OpenAIChatSession)(nil)

// SendMessage sends a message and gets a response, updating the history
func (s *OpenAIChatSession) SendMessage(ctx context.Context, message repositories.ChatMessage) (repositories.ChatMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(s.history)+2)
	if s.config.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s.config.SystemPrompt})
	}
	for _, m := range s.history {
		role := openai.ChatMessageRoleUser
		if m.Role == repositories.AssistantRole {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message.Content})

	reply, err := s.llm.complete(ctx, messages, s.config.Temperature)
	if err != nil {
		return repositories.ChatMessage{}, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return repositories.ChatMessage{}, errEmptyReply
	}

	response := repositories.ChatMessage{Role: repositories.AssistantRole, Content: reply}
	s.history = append(s.history, repositories.ChatMessage{Role: repositories.UserRole, Content: message.Content}, response)
	return response, nil
}

// History returns the current conversation history
func (s *OpenAIChatSession) History() ([]repositories.ChatMessage, error) {
	return append([]repositories.ChatMessage(nil), s.history...), nil
}
