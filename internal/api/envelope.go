package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/validation"
)

// Envelope wraps every JSON response. Exactly one of Data and ErrorCode is
// set, and StatusCode always matches the HTTP status sent.
type Envelope struct {
	Success    bool                    `json:"success"`
	Message    string                  `json:"message"`
	Data       any                     `json:"data,omitempty"`
	Error      string                  `json:"error,omitempty"`
	ErrorCode  apperr.Kind             `json:"errorCode,omitempty"`
	Errors     []validation.FieldError `json:"errors,omitempty"`
	StatusCode int                     `json:"statusCode"`
}

// Responder writes envelopes. Outside production failures carry the raw
// error detail.
type Responder struct {
	production bool
	logger     *zap.Logger
}

// NewResponder creates a responder
func NewResponder(production bool, logger *zap.Logger) *Responder {
	return &Responder{production: production, logger: logger}
}

// Success writes a success envelope.
func (r *Responder) Success(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		StatusCode: status,
	})
}

// Fail classifies err and writes a failure envelope.
func (r *Responder) Fail(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	status := kind.Status()
	env := Envelope{
		Success:    false,
		Message:    apperr.Message(err),
		ErrorCode:  kind,
		StatusCode: status,
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		env.Errors = fieldErrs
	}
	if !r.production {
		env.Error = apperr.Detail(err)
	}

	if status >= http.StatusInternalServerError {
		r.logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err))
	} else {
		r.logger.Warn("Request rejected",
			zap.String("path", c.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	return c.JSON(status, env)
}

// HTTPErrorHandler renders errors that escape handlers, such as unknown
// routes, oversized bodies and rate limiting, as envelopes.
func (r *Responder) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		err = fromHTTPError(he)
	}
	if writeErr := r.Fail(c, err); writeErr != nil {
		r.logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}

func fromHTTPError(he *echo.HTTPError) error {
	switch he.Code {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperr.Wrap(he, apperr.NotFound, "Route not found")
	case http.StatusRequestEntityTooLarge:
		return apperr.Wrap(he, apperr.PayloadTooLarge, "Request body is too large")
	case http.StatusTooManyRequests:
		return apperr.Wrap(he, apperr.UpstreamQuotaExceeded, "Too many requests. Please try again later")
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return apperr.Wrap(he, apperr.ValidationFailure, "Invalid request body")
	default:
		return apperr.Wrap(he, apperr.Internal, http.StatusText(he.Code))
	}
}
