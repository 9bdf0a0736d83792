package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration can start a server.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if c.Session.IdleTimeout.Duration <= 0 {
		return errors.New("session.idle_timeout must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	switch c.Server.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("server.env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Server.Env)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Server.RateLimitRequests <= 0 {
		return fmt.Errorf("server.rate_limit_requests must be positive, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitWindow.Duration <= 0 {
		return errors.New("server.rate_limit_window must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("llm.gemini_api_key is required for the gemini provider. Set GEMINI_API_KEY")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("llm.openai_api_key is required for the openai provider. Set OPENAI_API_KEY")
		}
	case ProviderMock:
		if c.IsProduction() {
			return errors.New("llm.provider mock is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q (want gemini, openai or mock)", c.LLM.Provider)
	}
	return nil
}

func (c *Config) validateProviders() error {
	switch c.Speech.Provider {
	case ProviderGoogle, ProviderMock:
	default:
		return fmt.Errorf("unknown speech.provider %q (want google or mock)", c.Speech.Provider)
	}
	switch c.OCR.Provider {
	case ProviderTesseract, ProviderMock:
	default:
		return fmt.Errorf("unknown ocr.provider %q (want tesseract or mock)", c.OCR.Provider)
	}
	return nil
}
