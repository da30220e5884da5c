package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"signal-relay/internal/metrics"
)

// MetricsMiddleware records request count, latency and in-flight gauge using
// the status the client will actually receive.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()
			m.RequestsInFlight.Dec()

			labels := []string{
				metrics.NormalizeMethod(c.Request().Method),
				strconv.Itoa(responseStatus(c, err)),
				metrics.NormalizePath(c.Request().URL.Path),
			}
			m.RequestsTotal.WithLabelValues(labels...).Inc()
			m.RequestDuration.WithLabelValues(labels...).Observe(elapsed)

			return err
		}
	}
}

// responseStatus resolves the final status for a handler result. Errors are
// written after the middleware chain returns: an *echo.HTTPError keeps its
// code (405 is answered as 404), any other error becomes a 500.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return http.StatusInternalServerError
	}
	if he.Code == http.StatusMethodNotAllowed {
		return http.StatusNotFound
	}
	return he.Code
}
