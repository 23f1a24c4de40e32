package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service"
)

// MeHandler serves the authenticated user's own profile.
type MeHandler struct {
	Users *repository.UserRepo
	Auth  *service.AuthService
}

func NewMeHandler(users *repository.UserRepo, auth *service.AuthService) *MeHandler {
	return &MeHandler{Users: users, Auth: auth}
}

type updateMeReq struct {
	Name *string `json:"name"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Me returns the caller's profile.
func (h *MeHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// UpdateMe sets or clears the display name.
func (h *MeHandler) UpdateMe(c echo.Context) error {
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	uid := middleware.CurrentUserID(c)
	if err := h.Users.UpdateName(ctx, uid, req.Name); err != nil {
		return err
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// ChangePassword verifies the current password and swaps in the new one;
// the service revokes every outstanding refresh token in the same
// transaction, ending all other sessions.
func (h *MeHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperr.New(apperr.Validation, "current_password and new_password are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, middleware.CurrentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
