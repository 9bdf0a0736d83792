package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides file values with any environment variables that are set.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"APP_ENV":              &c.Server.Env,
		"PORT":                 &c.Server.Port,
		"API_PREFIX":           &c.Server.APIPrefix,
		"BODY_LIMIT":           &c.Server.BodyLimit,
		"LLM_PROVIDER":         &c.LLM.Provider,
		"GEMINI_API_KEY":       &c.LLM.GeminiAPIKey,
		"GEMINI_MODEL":         &c.LLM.GeminiModel,
		"OPENAI_API_KEY":       &c.LLM.OpenAIAPIKey,
		"OPENAI_MODEL":         &c.LLM.OpenAIModel,
		"OPENAI_BASE_URL":      &c.LLM.OpenAIBaseURL,
		"SPEECH_PROVIDER":      &c.Speech.Provider,
		"ELEVEN_LABS_API_KEY":  &c.Speech.ElevenLabsAPIKey,
		"ELEVEN_LABS_VOICE_ID": &c.Speech.ElevenLabsVoice,
		"OCR_PROVIDER":         &c.OCR.Provider,
		"TESSDATA_PREFIX":      &c.OCR.TessdataPrefix,
		"MONGODB_URI":          &c.Storage.MongoURI,
		"MONGODB_DATABASE":     &c.Storage.MongoDatabase,
		"DATABASE_URL":         &c.Storage.DatabaseURL,
		"JWT_SECRET":           &c.Auth.JWTSecret,
		"EXPORT_FONT_PATH":     &c.Export.FontPath,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	durations := map[string]*Duration{
		"RATE_LIMIT_WINDOW":        &c.Server.RateLimitWindow,
		"SHUTDOWN_TIMEOUT":         &c.Server.ShutdownTimeout,
		"JWT_TOKEN_TTL":            &c.Auth.TokenTTL,
		"SESSION_IDLE_TIMEOUT":     &c.Session.IdleTimeout,
		"SESSION_CLEANUP_INTERVAL": &c.Session.CleanupInterval,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
			}
			dst.Duration = d
		}
	}

	if v, ok := os.LookupEnv("RATE_LIMIT_REQUESTS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_REQUESTS: invalid number %q: %w", v, err)
		}
		c.Server.RateLimitRequests = n
	}

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}
	return nil
}
