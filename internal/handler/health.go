package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"signal-relay/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v, now: time.Now}
}

// Health reports liveness with the current time in epoch milliseconds.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   h.now().UnixMilli(),
	})
}

// Root answers plain "ok" for uptime pingers that probe "/".
func (h *HealthHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Status returns relay status information. The forward target and token
// are never included.
func (h *HealthHandler) Status(c echo.Context) error {
	driver := h.cfg.Archive.Driver
	if driver == config.ArchiveNone {
		driver = "none"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    string(h.version),
		"forwarding": h.cfg.Forward.Enabled(),
		"archive":    driver,
	})
}
