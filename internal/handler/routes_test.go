package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"signal-relay/internal/archive"
	"signal-relay/internal/config"
	"signal-relay/internal/metrics"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	RegisterRoutes(e, newTestWebhookHandler(t, "", archive.Nop{}), NewHealthHandler(&config.Config{}, "test"), logger)
	return e
}

func TestRegisterRoutes_Wiring(t *testing.T) {
	e := newTestEcho(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET /", http.MethodGet, "/", "", http.StatusOK},
		{"GET /health", http.MethodGet, "/health", "", http.StatusOK},
		{"GET /status", http.MethodGet, "/status", "", http.StatusOK},
		{"POST /webhook json", http.MethodPost, "/webhook", `{"signal":"BUY"}`, http.StatusOK},
		{"POST /webhook text", http.MethodPost, "/webhook", "hello", http.StatusOK},
		{"GET /unknown", http.MethodGet, "/unknown", "", http.StatusNotFound},
		{"POST /unknown", http.MethodPost, "/unknown", "x", http.StatusNotFound},
		{"GET /webhook", http.MethodGet, "/webhook", "", http.StatusNotFound},
		{"DELETE /health", http.MethodDelete, "/health", "", http.StatusNotFound},
		{"OPTIONS /webhook", http.MethodOptions, "/webhook", "", http.StatusNotFound},
		{"OPTIONS /health", http.MethodOptions, "/health", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRegisterRoutes_NotFoundBody(t *testing.T) {
	e := newTestEcho(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/unknown"},
		{http.MethodPut, "/unknown"},
		{http.MethodOptions, "/webhook"},
	} {
		method := tc.method
		req := httptest.NewRequest(method, tc.path, http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: unmarshal %q: %v", method, rec.Body.String(), err)
		}
		if len(body) != 1 || body["status"] != "not_found" {
			t.Errorf("%s: body = %v, want {status: not_found}", method, body)
		}
	}
}

func TestRegisterMetrics(t *testing.T) {
	m := metrics.New()
	m.WebhooksReceived.WithLabelValues("json").Inc()

	e := echo.New()
	RegisterMetrics(e, &config.Config{Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"}}, m)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "signal_relay_webhooks_received_total") {
		t.Error("expected signal_relay_webhooks_received_total in exposition")
	}
}

func TestRegisterMetrics_Disabled(t *testing.T) {
	e := echo.New()
	RegisterMetrics(e, &config.Config{Metrics: config.MetricsConfig{Path: "/metrics"}}, metrics.New())

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
