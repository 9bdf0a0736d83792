package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/internal/validation"
	"github.com/shiksha-ai/server/internal/websocket"
	"github.com/shiksha-ai/server/usecase"
)

const serviceName = "shiksha-server"

// Services are the use cases exposed over HTTP. Hub may be nil, in which
// case the chat stream is not served.
type Services struct {
	OCR     *usecase.OCRService
	Speech  *usecase.SpeechService
	Grammar *usecase.GrammarService
	Chat    *usecase.ChatService
	Export  *usecase.ExportService
	History *usecase.HistoryService
	Hub     *websocket.Hub
}

// Handlers translates HTTP requests into use case calls. Every handler
// writes exactly one envelope or one binary body.
type Handlers struct {
	svc         Services
	respond     *Responder
	environment string
	logger      *zap.Logger
}

// NewHandlers creates the HTTP handlers
func NewHandlers(svc Services, respond *Responder, environment string, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, respond: respond, environment: environment, logger: logger}
}

func (h *Handlers) health(c echo.Context) error {
	return h.respond.Success(c, http.StatusOK, "Service is healthy", HealthResponse{
		Status:      "ok",
		Service:     serviceName,
		Environment: h.environment,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) languages(c echo.Context) error {
	return h.respond.Success(c, http.StatusOK, "Supported languages", LanguagesResponse{
		Languages: language.All(),
		Default:   language.Default.Code,
	})
}

func (h *Handlers) history(c echo.Context) error {
	filter, err := validation.HistoryQuery(c.QueryParam("feature"), c.QueryParam("limit"))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	records, err := h.svc.History.List(c.Request().Context(), currentUser(c), filter)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	if records == nil {
		records = []entities.HistoryRecord{}
	}
	return h.respond.Success(c, http.StatusOK, "History retrieved", HistoryResponse{
		Records: records,
		Count:   len(records),
	})
}

func (h *Handlers) historyStats(c echo.Context) error {
	stats, err := h.svc.History.Stats(c.Request().Context(), currentUser(c))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "History statistics retrieved", stats)
}

// bind decodes the JSON body, turning malformed input into a validation
// failure.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Wrap(err, apperr.ValidationFailure, "Invalid request body")
	}
	return nil
}

// attachment sends a binary body as a download.
func attachment(c echo.Context, filename, contentType string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, data)
}
