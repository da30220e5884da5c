// Package metrics provides Prometheus metrics for the relay.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for HTTP latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the relay.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	WebhooksReceived *prometheus.CounterVec

	ForwardDuration prometheus.Histogram
	ForwardTotal    *prometheus.CounterVec

	ArchiveWrites *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_relay_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signal_relay_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signal_relay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_relay_webhooks_received_total",
			Help: "Webhooks received by body parse outcome (json, raw, empty).",
		}, []string{"outcome"}),

		ForwardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signal_relay_forward_duration_seconds",
			Help:    "Downstream forward latency in seconds.",
			Buckets: defaultBuckets,
		}),

		ForwardTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_relay_forward_total",
			Help: "Downstream forwards by outcome (ok, http_error, failed).",
		}, []string{"outcome"}),

		ArchiveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_relay_archive_writes_total",
			Help: "Archive writes by outcome (ok, failed).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.WebhooksReceived,
		m.ForwardDuration,
		m.ForwardTotal,
		m.ArchiveWrites,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPaths lists the allowed path label values (bounded cardinality).
var knownPaths = []string{"/webhook", "/health", "/status", "/metrics"}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	if path == "/" {
		return "/"
	}
	for _, prefix := range knownPaths {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}
