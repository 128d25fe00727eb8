package httpcontroller

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// getRequestLogger creates a request-specific logger with a short request ID
// and client details.
func (s *Server) getRequestLogger(c echo.Context) *slog.Logger {
	requestID := c.Request().Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()[:8]
		c.Request().Header.Set("X-Request-ID", requestID)
	}

	return s.webLogger.With(
		"request_id", requestID,
		"client_ip", c.RealIP(),
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)
}

// AccessLogMiddleware logs one line per request with status and latency.
func (s *Server) AccessLogMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqLogger := s.getRequestLogger(c)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			reqLogger.Info("request completed",
				"status", c.Response().Status,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// ExtraHeadersMiddleware merges the configured extra headers into every
// response before any handler writes it.
func (s *Server) ExtraHeadersMiddleware() echo.MiddlewareFunc {
	headers := s.Settings.Server.Headers
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for name, value := range headers {
				h.Set(name, value)
			}
			return next(c)
		}
	}
}
