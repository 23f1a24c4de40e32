// Package middleware provides the per-request authentication and
// authorization checks plus shared request plumbing.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/utils"
)

// Context keys set by the middleware for downstream handlers.
const (
	CtxUserID     = "user_id"
	CtxEmail      = "email"
	CtxMembership = "membership"
	CtxRequestID  = "request_id"
)

// Authenticate verifies the Bearer access token and stores the caller's
// identity in the request context. Verification is signature plus expiry
// only; there is no database lookup on this path. All failures are plain
// 401s so a probing client learns nothing about why a token was rejected.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return apperr.New(apperr.Unauthorized, "missing or invalid authorization header")
			}
			id := utils.VerifyAccessToken(secret, strings.TrimPrefix(header, prefix))
			if id == nil {
				return apperr.New(apperr.Unauthorized, "invalid or expired token")
			}
			c.Set(CtxUserID, id.UserID)
			c.Set(CtxEmail, id.Email)
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user's id, 0 when Authenticate
// has not run on this route.
func CurrentUserID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}
