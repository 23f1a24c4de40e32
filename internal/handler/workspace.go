package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// WorkspaceHandler serves workspace and membership management. Role gates
// are applied per route by the middleware; this handler only deals with the
// operations themselves. The last-owner invariant lives in the repository's
// member mutations.
type WorkspaceHandler struct {
	Workspaces *repository.WorkspaceRepo
	Users      *repository.UserRepo
}

func NewWorkspaceHandler(ws *repository.WorkspaceRepo, users *repository.UserRepo) *WorkspaceHandler {
	return &WorkspaceHandler{Workspaces: ws, Users: users}
}

type workspaceReq struct {
	Name string `json:"name"`
}

type addMemberReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type updateMemberReq struct {
	Role string `json:"role"`
}

type workspaceResp struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	CreatedBy uint64 `json:"created_by"`
}

func toWorkspaceResp(ws *model.Workspace) workspaceResp {
	return workspaceResp{ID: ws.ID, Name: ws.Name, CreatedBy: ws.CreatedBy}
}

// Create makes a workspace with the caller as OWNER.
func (h *WorkspaceHandler) Create(c echo.Context) error {
	var req workspaceReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.New(apperr.Validation, "name is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ws, err := h.Workspaces.Create(ctx, req.Name, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toWorkspaceResp(ws))
}

// List returns the caller's workspaces.
func (h *WorkspaceHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Workspaces.ListForUser(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	out := make([]workspaceResp, 0, len(list))
	for i := range list {
		out = append(out, toWorkspaceResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one workspace; membership was already checked by middleware.
func (h *WorkspaceHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ws, err := h.Workspaces.Get(ctx, middleware.CurrentMembership(c).WorkspaceID)
	if err != nil {
		return err
	}
	if ws == nil {
		return apperr.New(apperr.NotFound, "workspace not found")
	}
	return c.JSON(http.StatusOK, toWorkspaceResp(ws))
}

// Update renames a workspace (ADMIN or higher).
func (h *WorkspaceHandler) Update(c echo.Context) error {
	var req workspaceReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.New(apperr.Validation, "name is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id := middleware.CurrentMembership(c).WorkspaceID
	if err := h.Workspaces.UpdateName(ctx, id, req.Name); err != nil {
		return err
	}
	ws, err := h.Workspaces.Get(ctx, id)
	if err != nil {
		return err
	}
	if ws == nil {
		return apperr.New(apperr.NotFound, "workspace not found")
	}
	return c.JSON(http.StatusOK, toWorkspaceResp(ws))
}

// Delete removes a workspace entirely (OWNER only).
func (h *WorkspaceHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Workspaces.Delete(ctx, middleware.CurrentMembership(c).WorkspaceID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMembers returns the workspace roster.
func (h *WorkspaceHandler) ListMembers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	members, err := h.Workspaces.ListMembers(ctx, middleware.CurrentMembership(c).WorkspaceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// AddMember invites an existing user by email (ADMIN or higher).
func (h *WorkspaceHandler) AddMember(c echo.Context) error {
	var req addMemberReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !ok {
		role = model.RoleMember
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return apperr.New(apperr.Validation, "email is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.New(apperr.NotFound, "no user with that email")
	}

	wsID := middleware.CurrentMembership(c).WorkspaceID
	if err := h.Workspaces.AddMember(ctx, wsID, u.ID, role); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"workspace_id": wsID,
		"user_id":      u.ID,
		"role":         role,
	})
}

// UpdateMemberRole changes a member's role (ADMIN or higher). Demoting the
// sole remaining OWNER is rejected with 400 no matter who asks.
func (h *WorkspaceHandler) UpdateMemberRole(c echo.Context) error {
	var req updateMemberReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !ok {
		return apperr.New(apperr.Validation, "role must be OWNER, ADMIN or MEMBER")
	}
	targetID, err := memberParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	wsID := middleware.CurrentMembership(c).WorkspaceID
	if err := h.Workspaces.UpdateMemberRole(ctx, wsID, targetID, role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"workspace_id": wsID,
		"user_id":      targetID,
		"role":         role,
	})
}

// RemoveMember removes a member (ADMIN or higher, or yourself). Removing
// the sole remaining OWNER is rejected with 400.
func (h *WorkspaceHandler) RemoveMember(c echo.Context) error {
	targetID, err := memberParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m := middleware.CurrentMembership(c)
	// ADMIN gate is on the route; self-removal (leave) is additionally
	// allowed for plain members via the leave route.
	if err := h.Workspaces.RemoveMember(ctx, m.WorkspaceID, targetID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Leave removes the caller's own membership (MEMBER gate). A sole OWNER
// cannot leave; they must transfer ownership or delete the workspace.
func (h *WorkspaceHandler) Leave(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m := middleware.CurrentMembership(c)
	if err := h.Workspaces.RemoveMember(ctx, m.WorkspaceID, m.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func memberParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.Validation, "invalid user id")
	}
	return id, nil
}
