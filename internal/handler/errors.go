package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotFoundErrorHandler wraps Echo's default error handler so that unknown
// paths and unsupported methods on known paths both answer
// 404 {"status":"not_found"}.
func NotFoundErrorHandler(e *echo.Echo, logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) || (he.Code != http.StatusNotFound && he.Code != http.StatusMethodNotAllowed) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		if c.Response().Committed {
			return
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(http.StatusNotFound)
		} else {
			werr = c.JSON(http.StatusNotFound, map[string]string{"status": "not_found"})
		}
		if werr != nil {
			logger.Error("writing not_found response", "err", werr)
		}
	}
}
