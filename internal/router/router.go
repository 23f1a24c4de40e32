// Package router wires handlers, middleware and role gates onto the Echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

// Handlers bundles everything the router needs to register routes.
type Handlers struct {
	Auth      *handler.AuthHandler
	Me        *handler.MeHandler
	Workspace *handler.WorkspaceHandler
	Todo      *handler.TodoHandler
	Event     *handler.EventHandler
	Health    *handler.HealthHandler
}

// Register sets up all routes. Auth endpoints live under /v1/auth and are
// rate limited; everything else under /v1 requires a valid access token,
// and workspace-scoped routes additionally pass through the role gate for
// the minimum role noted next to each.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, workspaces *repository.WorkspaceRepo, h Handlers) {
	e.Use(middleware.RequestID())

	e.GET("/healthz", h.Health.Health)

	auth := e.Group("/v1/auth", middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	v1 := e.Group("/v1", middleware.Authenticate(cfg.JWTSecret))

	v1.GET("/me", h.Me.Me)
	v1.PATCH("/me", h.Me.UpdateMe)
	v1.POST("/me/password", h.Me.ChangePassword)

	v1.POST("/workspaces", h.Workspace.Create)
	v1.GET("/workspaces", h.Workspace.List)

	// Per-workspace role gates, lowest required role first.
	member := middleware.RequireWorkspaceRole(workspaces, model.RoleMember)
	admin := middleware.RequireWorkspaceRole(workspaces, model.RoleAdmin)
	owner := middleware.RequireWorkspaceRole(workspaces, model.RoleOwner)

	ws := v1.Group("/workspaces/:id")
	ws.GET("", h.Workspace.Get, member)
	ws.PATCH("", h.Workspace.Update, admin)
	ws.DELETE("", h.Workspace.Delete, owner)

	ws.GET("/members", h.Workspace.ListMembers, member)
	ws.POST("/members", h.Workspace.AddMember, admin)
	ws.PATCH("/members/:userId", h.Workspace.UpdateMemberRole, admin)
	ws.DELETE("/members/:userId", h.Workspace.RemoveMember, admin)
	ws.POST("/leave", h.Workspace.Leave, member)

	ws.GET("/todos", h.Todo.List, member)
	ws.POST("/todos", h.Todo.Create, member)
	ws.GET("/todos/:todoId", h.Todo.Get, member)
	ws.PATCH("/todos/:todoId", h.Todo.Update, member)
	ws.DELETE("/todos/:todoId", h.Todo.Delete, member)

	ws.GET("/events", h.Event.List, member)
	ws.POST("/events", h.Event.Create, member)
	ws.GET("/events/:eventId", h.Event.Get, member)
	ws.PATCH("/events/:eventId", h.Event.Update, member)
	ws.DELETE("/events/:eventId", h.Event.Delete, member)
}
