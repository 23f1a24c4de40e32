package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestID tags every request with a correlation id, honoring an incoming
// X-Request-ID header when present. The id is echoed back in the response
// header and included in error envelopes.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(CtxRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// GetRequestID returns the correlation id for the request, empty when
// RequestID did not run.
func GetRequestID(c echo.Context) string {
	if v, ok := c.Get(CtxRequestID).(string); ok {
		return v
	}
	return ""
}
