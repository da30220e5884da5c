// Package client provides the downstream HTTP client for relayed signals.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"signal-relay/internal/config"
	"signal-relay/internal/metrics"
	"signal-relay/internal/model"
)

const userAgent = "signal-relay/1.0"

// maxLoggedBody caps how much of a downstream response body is kept for logs.
const maxLoggedBody = 4 << 10

// ForwardClient posts normalized payloads to the configured forward target.
type ForwardClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewForwardClient creates a ForwardClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable forward metrics recording.
func NewForwardClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ForwardClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Forward.IdleConnections,
		MaxIdleConnsPerHost: cfg.Forward.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &ForwardClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Forward.Timeout(),
		},
		logger:  logger.With("component", "forward_client"),
		metrics: m,
	}
}

// PostJSON sends body to url as a single attempt. Transport failures are
// reported in ForwardResult.Err rather than returned; any HTTP status is a
// completed call.
func (c *ForwardClient) PostJSON(ctx context.Context, url, token string, body []byte) model.ForwardResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.ForwardResult{Err: fmt.Errorf("build forward request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("forward request",
		"path", req.URL.Path,
		"bytes", len(body),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.ForwardDuration.Observe(duration.Seconds())
	}

	if err != nil {
		c.record("failed")
		return model.ForwardResult{Duration: duration, Err: fmt.Errorf("forward request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	if err != nil {
		c.logger.Debug("reading forward response body", "err", err)
	}
	// Drain the remainder so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	res := model.ForwardResult{
		StatusCode: resp.StatusCode,
		Body:       string(text),
		Duration:   duration,
	}
	if res.OK() {
		c.record("ok")
	} else {
		c.record("http_error")
	}
	return res
}

func (c *ForwardClient) record(outcome string) {
	if c.metrics != nil {
		c.metrics.ForwardTotal.WithLabelValues(outcome).Inc()
	}
}
