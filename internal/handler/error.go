package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/middleware"
)

// NewHTTPErrorHandler returns the single place where service errors become
// HTTP responses. Every error response is the same envelope: message,
// numeric status and the request-correlation id. Untagged errors collapse
// to a generic 500; their details reach the log, and the response body only
// outside production.
func NewHTTPErrorHandler(env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Kind.Status()
			message = ae.Message
		case errors.As(err, &he):
			status = he.Code
			message = fmt.Sprint(he.Message)
		}

		body := echo.Map{
			"error":      message,
			"status":     status,
			"request_id": middleware.GetRequestID(c),
		}
		if status >= http.StatusInternalServerError {
			c.Logger().Errorf("request %s failed: %v", middleware.GetRequestID(c), err)
			if env != "prod" {
				body["detail"] = err.Error()
			}
		}
		_ = c.JSON(status, body)
	}
}
