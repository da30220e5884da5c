package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.POST("/webhook", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["path"] != "/webhook" {
		t.Errorf("path = %v, want %q", entry["path"], "/webhook")
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want %d", entry["status"], http.StatusOK)
	}
	if entry["ping"] != false {
		t.Errorf("ping = %v, want false", entry["ping"])
	}
}

func TestIsPing(t *testing.T) {
	tests := []struct {
		name string
		path string
		ua   string
		want bool
	}{
		{"health path", "/health", "curl/8.0", true},
		{"uptime robot", "/", "Mozilla/5.0+(compatible; UptimeRobot/2.0; http://www.uptimerobot.com/)", true},
		{"apps script", "/webhook", "Mozilla/5.0 (compatible; Google-Apps-Script)", true},
		{"alert sender", "/webhook", "Go-http-client/1.1", false},
		{"empty", "/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPing(tt.path, tt.ua); got != tt.want {
				t.Errorf("IsPing(%q, %q) = %v, want %v", tt.path, tt.ua, got, tt.want)
			}
		})
	}
}
