// Package service implements the webhook relay: parsing, forwarding and archiving.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-relay/internal/archive"
	"signal-relay/internal/client"
	"signal-relay/internal/config"
	"signal-relay/internal/metrics"
	"signal-relay/internal/model"
	"signal-relay/internal/payload"
)

// ErrForwardDisabled is returned by Forward when no forward target is configured.
var ErrForwardDisabled = errors.New("forwarding disabled: forward.url is empty")

// secretQueryPattern matches credential-like query parameters in URLs embedded in error messages.
var secretQueryPattern = regexp.MustCompile(`(?i)((?:token|api_?key|key|secret|password)=)[^&\s"]+`)

// RelayService turns webhook calls into normalized payloads and runs the
// forward and archive side effects as a detached task.
type RelayService struct {
	client  *client.ForwardClient
	store   archive.Store
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	tasks sync.WaitGroup
}

// NewRelayService creates a RelayService. The metrics parameter is optional.
func NewRelayService(c *client.ForwardClient, store archive.Store, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *RelayService {
	return &RelayService{
		client:  c,
		store:   store,
		cfg:     cfg,
		logger:  logger.With("component", "relay_service"),
		metrics: m,
		now:     time.Now,
	}
}

// Receive parses and normalizes the request body, then starts the relay task.
// The returned payload never depends on the task; done is closed once the
// task has finished forwarding and archiving.
func (s *RelayService) Receive(ctx context.Context, in *model.InboundRequest) (p model.Payload, done <-chan struct{}) {
	body := payload.Read(in.Body)
	p = payload.Normalize(body)
	sig := payload.Summarize(p)

	if s.metrics != nil {
		s.metrics.WebhooksReceived.WithLabelValues(body.Outcome()).Inc()
	}

	s.logger.Info("webhook received",
		"outcome", body.Outcome(),
		"bytes", len(in.Body),
		"content_type", in.Header.Get("Content-Type"),
		"signal", sig.Kind,
		"symbol", sig.Symbol,
		"price", sig.Price.String(),
		"request_id", in.RequestID,
	)
	if sig.Kind != "" && !sig.Known() {
		s.logger.Debug("unrecognized signal kind", "signal", sig.Kind)
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		// Decoded JSON always re-encodes; keep the task alive with the raw wrapper anyway.
		s.logger.Error("encode payload", "err", err)
		encoded, _ = json.Marshal(map[string]any{model.RawMessageKey: string(in.Body)})
	}

	rec := model.Record{
		ID:         uuid.New(),
		ReceivedAt: s.now().UTC(),
		RemoteIP:   in.RemoteIP,
		RequestID:  in.RequestID,
		Outcome:    body.Outcome(),
		Signal:     sig,
		Payload:    encoded,
	}

	return p, s.dispatch(context.WithoutCancel(ctx), rec)
}

// dispatch runs forward then archive on their own goroutine. ctx must not be
// tied to the inbound connection.
func (s *RelayService) dispatch(ctx context.Context, rec model.Record) <-chan struct{} {
	done := make(chan struct{})
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer close(done)

		s.forward(ctx, rec)
		s.archive(ctx, rec)
	}()
	return done
}

// Forward posts an encoded payload to the forward target as a single attempt.
func (s *RelayService) Forward(ctx context.Context, body []byte) (model.ForwardResult, error) {
	if !s.cfg.Forward.Enabled() {
		return model.ForwardResult{}, ErrForwardDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Forward.Timeout())
	defer cancel()

	res := s.client.PostJSON(ctx, s.cfg.Forward.URL, s.cfg.Forward.Token, body)
	if res.Err != nil {
		return res, fmt.Errorf("forward to %s: %w", redactURL(s.cfg.Forward.URL), res.Err)
	}
	return res, nil
}

func (s *RelayService) forward(ctx context.Context, rec model.Record) {
	res, err := s.Forward(ctx, rec.Payload)
	switch {
	case errors.Is(err, ErrForwardDisabled):
		return
	case err != nil:
		s.logger.Error("forward failed",
			"err", s.sanitizeError(err),
			"duration_ms", res.Duration.Milliseconds(),
			"request_id", rec.RequestID,
		)
	case !res.OK():
		s.logger.Warn("forward rejected",
			"status", res.StatusCode,
			"body", res.Body,
			"duration_ms", res.Duration.Milliseconds(),
			"request_id", rec.RequestID,
		)
	default:
		s.logger.Info("forward ok",
			"status", res.StatusCode,
			"body", res.Body,
			"duration_ms", res.Duration.Milliseconds(),
			"request_id", rec.RequestID,
		)
	}
}

func (s *RelayService) archive(ctx context.Context, rec model.Record) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Archive.Timeout())
	defer cancel()

	outcome := "ok"
	if err := s.store.Save(ctx, rec); err != nil {
		outcome = "failed"
		s.logger.Error("archive failed",
			"err", s.sanitizeError(err),
			"id", rec.ID.String(),
			"request_id", rec.RequestID,
		)
	}
	if s.metrics != nil && s.cfg.Archive.Driver != config.ArchiveNone {
		s.metrics.ArchiveWrites.WithLabelValues(outcome).Inc()
	}
}

// redactURL masks the userinfo password of raw.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "forward target"
	}
	return u.Redacted()
}

// Drain waits for in-flight relay tasks, bounded by ctx.
func (s *RelayService) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain relay tasks: %w", ctx.Err())
	}
}

// sanitizeError redacts the forward token and credential-like query values
// from error messages that may contain downstream URLs.
func (s *RelayService) sanitizeError(err error) string {
	msg := err.Error()
	if tok := s.cfg.Forward.Token; tok != "" {
		msg = strings.ReplaceAll(msg, tok, "[REDACTED]")
	}
	return secretQueryPattern.ReplaceAllString(msg, "${1}[REDACTED]")
}
