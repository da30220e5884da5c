// Package middleware provides Echo middleware for logging, metrics and security.
package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// pingUserAgents are uptime monitors whose requests are tagged as pings.
var pingUserAgents = []string{"UptimeRobot", "Google-Apps-Script", "beanserver"}

// RequestLogger returns an Echo middleware that logs each request with slog
// as a single line. Health probes and uptime monitors are tagged ping=true.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			logger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
				"ping", IsPing(req.URL.Path, req.UserAgent()),
			)

			return err
		}
	}
}

// IsPing reports whether a request comes from a health probe or uptime monitor.
func IsPing(path, userAgent string) bool {
	if path == "/health" {
		return true
	}
	for _, hint := range pingUserAgents {
		if strings.Contains(userAgent, hint) {
			return true
		}
	}
	return false
}
