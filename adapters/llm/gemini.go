package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.4
	defaultTopP           = 0.95
	defaultTopK           = 40
	defaultMaxTokens      = 2048
	defaultTimeoutSeconds = 60
	maxAttempts           = 3
)

// GeminiConfig holds configuration for the Gemini adapter
// Required fields:
// - APIKey: Google AI Studio API key
// Optional fields fall back to the package defaults.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int
	TimeoutSeconds  int
}

// safetySettings keeps replies suitable for school-age learners.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockLowAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockLowAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockLowAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}
	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}
	if config.TopK < 0 {
		return fmt.Errorf("topK must be positive, got %f", config.TopK)
	}
	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}
	return nil
}

// GeminiLLM implements the LargeLanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	client *genai.Client
	config GeminiConfig
	logger *zap.Logger
}

// Ensure GeminiLLM implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*GeminiLLM)(nil)

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if config.Model == "" {
		config.Model = defaultModel
		logger.Info("Using default model", zap.String("model", config.Model))
	}
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
		logger.Info("Using default temperature", zap.Float32("temperature", config.Temperature))
	}
	if config.TopP == 0 {
		config.TopP = defaultTopP
		logger.Info("Using default topP", zap.Float32("topP", config.TopP))
	}
	if config.TopK == 0 {
		config.TopK = defaultTopK
		logger.Info("Using default topK", zap.Float32("topK", config.TopK))
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = defaultMaxTokens
		logger.Info("Using default maxOutputTokens", zap.Int("maxOutputTokens", config.MaxOutputTokens))
	}
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = defaultTimeoutSeconds
		logger.Info("Using default timeoutSeconds", zap.Int("timeoutSeconds", config.TimeoutSeconds))
	}

	return &GeminiLLM{client: client, config: config, logger: logger}, nil
}

// Generate sends a single prompt and returns the reply text
func (g *GeminiLLM) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	return g.generate(ctx, req.SystemPrompt, contents, req.Temperature)
}

// GenerateChat creates a chat session with history
func (g *GeminiLLM) GenerateChat(ctx context.Context, config repositories.ChatConfig, history []repositories.ChatMessage) (repositories.ChatSession, error) {
	return NewGeminiChatSession(g, config, history), nil
}

// generate calls the model with retries on transient failures. Quota and
// input errors are returned at once since retrying cannot fix them.
func (g *GeminiLLM) generate(ctx context.Context, systemPrompt string, contents []*genai.Content, temperature float32) (string, error) {
	if temperature == 0 {
		temperature = g.config.Temperature
	}
	config := &genai.GenerateContentConfig{
		SafetySettings:  safetySettings,
		Temperature:     genai.Ptr(temperature),
		TopP:            genai.Ptr(g.config.TopP),
		TopK:            genai.Ptr(g.config.TopK),
		MaxOutputTokens: int32(g.config.MaxOutputTokens),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.config.TimeoutSeconds)*time.Second)
	defer cancel()

	var (
		response *genai.GenerateContentResponse
		err      error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.config.Model, contents, config)
		if err == nil {
			break
		}
		err = classifyGeminiError(err)
		if !retryable(err) {
			break
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if err != nil {
		g.logger.Error("Failed to generate content", zap.Error(err))
		return "", err
	}

	return responseText(response)
}

// responseText extracts the reply, turning safety blocks into input errors.
func responseText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil {
		return "", errors.New("empty response from Gemini")
	}
	if fb := response.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", apperr.E(apperr.UpstreamInputRejected, "The request was blocked by content safety filters")
	}
	if len(response.Candidates) == 0 {
		return "", errors.New("no candidates in Gemini response")
	}
	candidate := response.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", apperr.E(apperr.UpstreamInputRejected, "The request was blocked by content safety filters")
	}
	if candidate.Content == nil {
		return "", errors.New("no content in Gemini response")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case http.StatusTooManyRequests:
		return apperr.Wrap(err, apperr.UpstreamQuotaExceeded, "AI service quota exceeded. Please try again later")
	case http.StatusBadRequest:
		return apperr.Wrap(err, apperr.UpstreamInputRejected, "The AI service rejected the input")
	default:
		return fmt.Errorf("gemini request failed: %w", err)
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	kind := apperr.KindOf(err)
	return kind != apperr.UpstreamQuotaExceeded && kind != apperr.UpstreamInputRejected
}
