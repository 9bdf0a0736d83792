package main

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/adapters/export"
	"github.com/shiksha-ai/server/adapters/llm"
	"github.com/shiksha-ai/server/adapters/memory"
	"github.com/shiksha-ai/server/adapters/mongo"
	"github.com/shiksha-ai/server/adapters/ocr"
	"github.com/shiksha-ai/server/adapters/postgres"
	"github.com/shiksha-ai/server/adapters/stt"
	"github.com/shiksha-ai/server/adapters/tts"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/api"
	"github.com/shiksha-ai/server/internal/auth"
	"github.com/shiksha-ai/server/internal/config"
	"github.com/shiksha-ai/server/internal/websocket"
	"github.com/shiksha-ai/server/usecase"
)

const mockTranscript = "this is a sample transcription"

// app holds the wired server and everything that must be released on exit.
type app struct {
	echo    *echo.Echo
	hub     *websocket.Hub
	cleanup *usecase.SessionCleanupService
	closers []func()
	logger  *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (a *app, err error) {
	a = &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	model, err := newLLM(ctx, cfg, logger)
	if err != nil {
		return a, err
	}
	recognizer := newOCR(cfg, logger)
	speechToText, err := a.newSpeechToText(ctx, cfg, logger)
	if err != nil {
		return a, err
	}
	textToSpeech, err := newTextToSpeech(cfg, logger)
	if err != nil {
		return a, err
	}
	sessions, records, err := a.newStorage(ctx, cfg, logger)
	if err != nil {
		return a, err
	}
	exporter, err := newExporter(cfg, logger)
	if err != nil {
		return a, err
	}

	var tokens *auth.Manager
	if cfg.Auth.JWTSecret != "" {
		if tokens, err = auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration); err != nil {
			return a, err
		}
	} else {
		logger.Warn("JWT_SECRET not set, every caller is anonymous")
	}

	// Initialize usecase services
	idle := cfg.Session.IdleTimeout.Duration
	history := usecase.NewHistoryService(records, logger)
	chat := usecase.NewChatService(model, sessions, history, idle, logger)
	speech := usecase.NewSpeechService(speechToText, textToSpeech, history, logger)

	a.hub = websocket.NewHub(chat, speech, logger)
	a.cleanup = usecase.NewSessionCleanupService(sessions, idle, cfg.Session.CleanupInterval.Duration, logger)

	a.echo = api.NewServer(api.Services{
		OCR:     usecase.NewOCRService(recognizer, history, logger),
		Speech:  speech,
		Grammar: usecase.NewGrammarService(model, history, logger),
		Chat:    chat,
		Export:  usecase.NewExportService(exporter, chat, history, logger),
		History: history,
		Hub:     a.hub,
	}, api.ServerOptions{
		Production:        cfg.IsProduction(),
		Environment:       cfg.Server.Env,
		Prefix:            cfg.Server.APIPrefix,
		CORSOrigins:       cfg.Server.CORSOrigins,
		BodyLimit:         cfg.Server.BodyLimit,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow.Duration,
		Tokens:            tokens,
	}, logger)

	return a, nil
}

// Start runs the background workers until ctx is cancelled.
func (a *app) Start(ctx context.Context) {
	go a.hub.Run(ctx)
	a.cleanup.Start()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLLM(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return llm.NewGeminiLLM(ctx, llm.GeminiConfig{
			APIKey: cfg.LLM.GeminiAPIKey,
			Model:  cfg.LLM.GeminiModel,
		}, logger)
	case config.ProviderOpenAI:
		return llm.NewOpenAILLM(llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAIAPIKey,
			Model:   cfg.LLM.OpenAIModel,
			BaseURL: cfg.LLM.OpenAIBaseURL,
		}, logger)
	default:
		logger.Warn("Using mock language model")
		return llm.NewMockLLM(""), nil
	}
}

func newOCR(cfg *config.Config, logger *zap.Logger) repositories.TextRecognizer {
	if cfg.OCR.Provider == config.ProviderMock {
		logger.Warn("Using mock OCR")
		return ocr.NewMockOCR("Sample extracted text")
	}
	return ocr.NewTesseractOCR(ocr.TesseractConfig{TessdataPrefix: cfg.OCR.TessdataPrefix}, logger)
}

func (a *app) newSpeechToText(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, error) {
	if cfg.Speech.Provider == config.ProviderMock {
		logger.Warn("Using mock speech recognition")
		return stt.NewMockSpeechToText(mockTranscript, logger), nil
	}
	google, err := stt.NewGoogleSpeechToText(ctx, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := google.Close(); err != nil {
			logger.Error("Failed to close speech client", zap.Error(err))
		}
	})
	return google, nil
}

// newTextToSpeech returns nil when no synthesis provider is configured.
func newTextToSpeech(cfg *config.Config, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch {
	case cfg.Speech.ElevenLabsAPIKey != "":
		return tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:  cfg.Speech.ElevenLabsAPIKey,
			VoiceID: cfg.Speech.ElevenLabsVoice,
		}, logger)
	case cfg.Speech.Provider == config.ProviderMock:
		return tts.NewMockTextToSpeech(), nil
	default:
		logger.Info("ELEVEN_LABS_API_KEY not set, speech synthesis disabled")
		return nil, nil
	}
}

// newStorage keeps sessions in MongoDB when MONGODB_URI is set and history
// in PostgreSQL when DATABASE_URL is set, falling back to MongoDB and then
// to memory.
func (a *app) newStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.SessionStore, repositories.HistoryRepository, error) {
	var (
		sessions repositories.SessionStore      = memory.NewSessionStore()
		records  repositories.HistoryRepository = memory.NewHistoryStore()
	)

	if cfg.Storage.MongoURI != "" {
		client, err := mongo.NewClient(ctx, mongo.Config{
			URI:      cfg.Storage.MongoURI,
			Database: cfg.Storage.MongoDatabase,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(ctx)
		})
		sessions = mongo.NewSessionStore(client.Database, logger)
		records = mongo.NewHistoryRepository(client.Database, logger)
	} else {
		logger.Warn("MONGODB_URI not set, chat sessions are kept in memory")
	}

	if cfg.Storage.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		records = postgres.NewHistoryRepository(db)
	}

	return sessions, records, nil
}

func newExporter(cfg *config.Config, logger *zap.Logger) (*export.Registry, error) {
	pdf, err := export.NewPDFRenderer(export.PDFConfig{FontPath: cfg.Export.FontPath}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF renderer: %w", err)
	}
	return export.NewRegistry(
		pdf,
		export.DOCXRenderer{},
		export.TextRenderer{},
		export.NewHTMLRenderer(),
		export.JSONRenderer{},
		export.CSVRenderer{},
	), nil
}
