package config

import "time"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderTesseract = "tesseract"
	ProviderMock      = "mock"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{
			Env:               EnvDevelopment,
			Port:              "8080",
			APIPrefix:         "/api",
			CORSOrigins:       []string{"*"},
			BodyLimit:         "12M",
			RateLimitRequests: 100,
			RateLimitWindow:   Duration{15 * time.Minute},
			ShutdownTimeout:   Duration{10 * time.Second},
		},
		LLM: LLM{
			Provider:    ProviderGemini,
			GeminiModel: "gemini-2.0-flash",
			OpenAIModel: "gpt-4o-mini",
		},
		Speech: Speech{Provider: ProviderGoogle},
		OCR:    OCR{Provider: ProviderTesseract},
		Storage: Storage{
			MongoDatabase: "shiksha",
		},
		Auth: Auth{TokenTTL: Duration{7 * 24 * time.Hour}},
		Session: Session{
			IdleTimeout:     Duration{24 * time.Hour},
			CleanupInterval: Duration{30 * time.Minute},
		},
	}
}
