package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signal-relay/internal/config"
	"signal-relay/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, webhook *WebhookHandler, health *HealthHandler, logger *slog.Logger) {
	e.HTTPErrorHandler = NotFoundErrorHandler(e, logger)

	e.GET("/", health.Root)
	e.GET("/health", health.Health)
	e.GET("/status", health.Status)

	e.POST("/webhook", webhook.Handle)

	for _, path := range []string{"/", "/health", "/status", "/webhook"} {
		e.OPTIONS(path, notFound)
	}
}

// notFound shadows Echo's automatic OPTIONS responder on known paths.
func notFound(echo.Context) error {
	return echo.ErrNotFound
}

// RegisterMetrics exposes the Prometheus registry when metrics are enabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	e.OPTIONS(cfg.Metrics.Path, notFound)
}
