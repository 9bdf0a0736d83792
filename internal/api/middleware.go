package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shiksha-ai/server/internal/auth"
)

const userIDKey = "userID"

// Identity resolves the caller from a bearer token, or from the token query
// parameter for websocket clients that cannot set headers. Requests without
// a valid token act as auth.AnonymousUser. A nil manager disables tokens.
func Identity(tokens *auth.Manager, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := auth.AnonymousUser
			if token := bearerToken(c); token != "" && tokens != nil {
				claims, err := tokens.ValidateToken(token)
				if err != nil {
					logger.Debug("Ignoring invalid token", zap.Error(err))
				} else {
					userID = claims.UserID
				}
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("token")
}

// currentUser returns the caller set by Identity.
func currentUser(c echo.Context) string {
	if id, ok := c.Get(userIDKey).(string); ok && id != "" {
		return id
	}
	return auth.AnonymousUser
}

// RateLimit allows requests per window for each client IP.
func RateLimit(requests int, window time.Duration) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(requests) / window.Seconds()),
		Burst:     requests,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// RequestLogger writes one structured access log line per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("user_id", currentUser(c)),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Error("Request", fields...)
			} else {
				logger.Info("Request", fields...)
			}
			return nil
		},
	})
}
