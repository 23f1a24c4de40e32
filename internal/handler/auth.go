package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/service"
	"github.com/taskhive/taskhive/internal/utils"
)

// AuthHandler translates the auth endpoints to and from the auth service.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userPart struct {
	ID    uint64  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}
type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type sessionResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh string    `json:"refresh_token"` // raw secret, returned once
}
type pairResp struct {
	Access  tokenPart `json:"access"`
	Refresh string    `json:"refresh_token"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toTokenPart(t utils.AccessToken) tokenPart {
	return tokenPart{Token: t.Token, Expires: t.Exp}
}

// reqCtx bounds handler-side database work the way the rest of the
// handlers do.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register creates an account and returns its first session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sessionResp{
		User:    toUserPart(sess.User),
		Access:  toTokenPart(sess.Access),
		Refresh: sess.RefreshRaw,
	})
}

// Login verifies credentials and returns a fresh session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResp{
		User:    toUserPart(sess.User),
		Access:  toTokenPart(sess.Access),
		Refresh: sess.RefreshRaw,
	})
}

// Refresh rotates the presented refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, err := bindRefresh(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pairResp{
		Access:  toTokenPart(pair.Access),
		Refresh: pair.RefreshRaw,
	})
}

// Logout revokes the presented refresh token. Always 204 when the revoke
// itself succeeds; an already-dead token is a no-op.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, err := bindRefresh(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, raw); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func bindRefresh(c echo.Context) (string, error) {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return "", apperr.New(apperr.Validation, "refresh_token required")
	}
	return strings.TrimSpace(req.RefreshToken), nil
}
