package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"signal-relay/internal/config"
	"signal-relay/internal/model"
	"signal-relay/internal/service"
)

// webhookResponse is the acknowledgment returned for every webhook call.
type webhookResponse struct {
	Status   string        `json:"status"`
	Received model.Payload `json:"received"`
}

// WebhookHandler accepts trading alerts and always acknowledges them.
type WebhookHandler struct {
	relay  *service.RelayService
	await  bool
	logger *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(relay *service.RelayService, cfg *config.Config, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		relay:  relay,
		await:  cfg.Forward.ShouldAwait(),
		logger: logger.With("component", "webhook_handler"),
	}
}

// Handle reads the body whatever its content type and replies 200 with the
// normalized payload. Forward and archive outcomes never reach the caller.
func (h *WebhookHandler) Handle(c echo.Context) error {
	req := c.Request()

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			// Body limit exceeded mid-stream.
			return he
		}
		h.logger.Warn("reading webhook body; using what was received",
			"err", err,
			"bytes", len(raw),
		)
	}

	in := &model.InboundRequest{
		Header:    req.Header,
		Body:      raw,
		RemoteIP:  c.RealIP(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}

	p, done := h.relay.Receive(req.Context(), in)
	resp := webhookResponse{Status: "ok", Received: p}

	if h.await {
		<-done
	}

	return c.JSON(http.StatusOK, resp)
}
