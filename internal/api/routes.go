package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/internal/auth"
)

// ServerOptions configures the HTTP surface.
type ServerOptions struct {
	Production        bool
	Environment       string
	Prefix            string
	CORSOrigins       []string
	BodyLimit         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Tokens may be nil, in which case every caller is anonymous.
	Tokens *auth.Manager
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(svc Services, opts ServerOptions, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	responder := NewResponder(opts.Production, logger)
	e.HTTPErrorHandler = responder.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: opts.CORSOrigins}))
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
	e.Use(Identity(opts.Tokens, logger))

	InitRoutes(e, NewHandlers(svc, responder, opts.Environment, logger), opts)
	return e
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handlers, opts ServerOptions) {
	// Health check
	e.GET("/health", h.health)

	g := e.Group(opts.Prefix)
	if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
		g.Use(RateLimit(opts.RateLimitRequests, opts.RateLimitWindow))
	}

	g.GET("/health", h.health)
	g.GET("/languages", h.languages)

	g.POST("/ocr", h.extractText)

	g.POST("/speech", h.transcribe)
	g.POST("/speech/analyze", h.analyzePronunciation)
	g.POST("/speech/synthesize", h.synthesize)

	g.POST("/grammar", h.checkGrammar)
	g.POST("/grammar/batch", h.checkGrammarBatch)

	g.POST("/chat", h.sendChatMessage)
	g.POST("/chat/session", h.startChatSession)
	g.GET("/chat/history/:sessionId", h.chatHistory)
	g.POST("/chat/session/:sessionId/continue", h.continueChatSession)
	g.POST("/chat/session/:sessionId/clear", h.clearChatSession)
	g.DELETE("/chat/session/:sessionId", h.deleteChatSession)
	if h.svc.Hub != nil {
		g.GET("/chat/ws", h.chatStream)
	}

	g.POST("/export/grammar", h.exportGrammar)
	g.POST("/export/session/:sessionId", h.exportSession)
	g.POST("/export/history", h.exportHistory)
	g.POST("/export/bulk", h.exportBulk)
	g.POST("/export/:format", h.exportText)

	g.GET("/history", h.history)
	g.GET("/history/stats", h.historyStats)
}
