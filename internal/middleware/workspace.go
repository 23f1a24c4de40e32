package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// RequireWorkspaceRole loads the caller's membership in the workspace named
// by the :id path parameter and rejects the request unless the member's
// role reaches min. The comparison is numeric over Role.Level(), never
// string equality, so OWNER passes every gate that ADMIN or MEMBER would.
// The membership is stored in the context for handlers that need it.
func RequireWorkspaceRole(workspaces *repository.WorkspaceRepo, min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil || workspaceID == 0 {
				return apperr.New(apperr.Validation, "invalid workspace id")
			}
			m, err := workspaces.GetMembership(c.Request().Context(), workspaceID, CurrentUserID(c))
			if err != nil {
				return err
			}
			if m == nil {
				return apperr.New(apperr.Forbidden, "not a member of this workspace")
			}
			if m.Role.Level() < min.Level() {
				return apperr.Newf(apperr.Forbidden,
					"requires %s role or higher, current role is %s", min, m.Role)
			}
			c.Set(CtxMembership, m)
			return next(c)
		}
	}
}

// CurrentMembership returns the membership attached by RequireWorkspaceRole,
// nil when the route is not workspace-scoped.
func CurrentMembership(c echo.Context) *model.Membership {
	if m, ok := c.Get(CtxMembership).(*model.Membership); ok {
		return m
	}
	return nil
}
