// Package config loads server settings from a .env file, an optional TOML
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as "15m" or "24h" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Server contains HTTP listener and middleware settings.
type Server struct {
	Env               string   `toml:"env"`
	Port              string   `toml:"port"`
	APIPrefix         string   `toml:"api_prefix"`
	CORSOrigins       []string `toml:"cors_origins"`
	BodyLimit         string   `toml:"body_limit"`
	RateLimitRequests int      `toml:"rate_limit_requests"`
	RateLimitWindow   Duration `toml:"rate_limit_window"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
}

// LLM selects and configures the language model provider.
type LLM struct {
	Provider      string `toml:"provider"`
	GeminiAPIKey  string `toml:"gemini_api_key"`
	GeminiModel   string `toml:"gemini_model"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIModel   string `toml:"openai_model"`
	OpenAIBaseURL string `toml:"openai_base_url"`
}

// Speech configures recognition and synthesis.
type Speech struct {
	Provider         string `toml:"provider"`
	ElevenLabsAPIKey string `toml:"eleven_labs_api_key"`
	ElevenLabsVoice  string `toml:"eleven_labs_voice_id"`
}

// OCR configures text recognition.
type OCR struct {
	Provider       string `toml:"provider"`
	TessdataPrefix string `toml:"tessdata_prefix"`
}

// Storage selects where sessions and history live. Empty values keep them
// in memory.
type Storage struct {
	MongoURI      string `toml:"mongodb_uri"`
	MongoDatabase string `toml:"mongodb_database"`
	DatabaseURL   string `toml:"database_url"`
}

// Auth configures bearer tokens. An empty secret disables them.
type Auth struct {
	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`
}

// Export configures document rendering.
type Export struct {
	FontPath string `toml:"font_path"`
}

// Session configures chat session lifetime.
type Session struct {
	IdleTimeout     Duration `toml:"idle_timeout"`
	CleanupInterval Duration `toml:"cleanup_interval"`
}

// Config encapsulates all configuration values for the server.
type Config struct {
	Server  Server  `toml:"server"`
	LLM     LLM     `toml:"llm"`
	Speech  Speech  `toml:"speech"`
	OCR     OCR     `toml:"ocr"`
	Storage Storage `toml:"storage"`
	Auth    Auth    `toml:"auth"`
	Export  Export  `toml:"export"`
	Session Session `toml:"session"`
}

// Load reads .env (if present), then the TOML file at path (if path is set),
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func (c *Config) normalize() {
	c.Server.Env = strings.ToLower(strings.TrimSpace(c.Server.Env))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Speech.Provider = strings.ToLower(strings.TrimSpace(c.Speech.Provider))
	c.OCR.Provider = strings.ToLower(strings.TrimSpace(c.OCR.Provider))
	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		c.Server.APIPrefix = "/" + c.Server.APIPrefix
	}
	c.Server.APIPrefix = strings.TrimRight(c.Server.APIPrefix, "/")
}
