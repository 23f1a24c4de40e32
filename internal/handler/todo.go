package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/queue"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service"
)

// TodoHandler serves workspace-scoped todo CRUD. Every mutation submits an
// index-sync event through the fire-and-forget indexer; indexing can lag or
// fail without the request noticing.
type TodoHandler struct {
	Todos   *repository.TodoRepo
	Indexer *service.Indexer
}

func NewTodoHandler(todos *repository.TodoRepo, indexer *service.Indexer) *TodoHandler {
	return &TodoHandler{Todos: todos, Indexer: indexer}
}

type todoReq struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	DueAt       *time.Time `json:"due_at"`
	AssigneeID  *uint64    `json:"assignee_id"`
}

// Create adds a todo to the workspace.
func (h *TodoHandler) Create(c echo.Context) error {
	var req todoReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	status := model.TodoOpen
	if req.Status != nil {
		if !model.ValidTodoStatus(*req.Status) {
			return apperr.New(apperr.Validation, "status must be OPEN, IN_PROGRESS or DONE")
		}
		status = *req.Status
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t := model.Todo{
		WorkspaceID: middleware.CurrentMembership(c).WorkspaceID,
		Title:       strings.TrimSpace(*req.Title),
		Description: req.Description,
		Status:      status,
		DueAt:       req.DueAt,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   middleware.CurrentUserID(c),
	}
	if err := h.Todos.Create(ctx, &t); err != nil {
		return err
	}
	h.submitIndex(queue.IndexActionUpsert, &t)
	return c.JSON(http.StatusCreated, t)
}

// List returns the workspace's todos.
func (h *TodoHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Todos.ListByWorkspace(ctx, middleware.CurrentMembership(c).WorkspaceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns one todo.
func (h *TodoHandler) Get(c echo.Context) error {
	id, err := todoParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Todos.Get(ctx, middleware.CurrentMembership(c).WorkspaceID, id)
	if err != nil {
		return err
	}
	if t == nil {
		return apperr.New(apperr.NotFound, "todo not found")
	}
	return c.JSON(http.StatusOK, t)
}

// Update applies partial changes to a todo.
func (h *TodoHandler) Update(c echo.Context) error {
	id, err := todoParam(c)
	if err != nil {
		return err
	}
	var req todoReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	wsID := middleware.CurrentMembership(c).WorkspaceID
	t, err := h.Todos.Get(ctx, wsID, id)
	if err != nil {
		return err
	}
	if t == nil {
		return apperr.New(apperr.NotFound, "todo not found")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return apperr.New(apperr.Validation, "title cannot be empty")
		}
		t.Title = title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Status != nil {
		if !model.ValidTodoStatus(*req.Status) {
			return apperr.New(apperr.Validation, "status must be OPEN, IN_PROGRESS or DONE")
		}
		t.Status = *req.Status
	}
	if req.DueAt != nil {
		t.DueAt = req.DueAt
	}
	if req.AssigneeID != nil {
		t.AssigneeID = req.AssigneeID
	}

	if err := h.Todos.Update(ctx, t); err != nil {
		return err
	}
	updated, err := h.Todos.Get(ctx, wsID, id)
	if err != nil {
		return err
	}
	if updated == nil {
		return apperr.New(apperr.NotFound, "todo not found")
	}
	h.submitIndex(queue.IndexActionUpsert, updated)
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a todo.
func (h *TodoHandler) Delete(c echo.Context) error {
	id, err := todoParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	wsID := middleware.CurrentMembership(c).WorkspaceID
	if err := h.Todos.Delete(ctx, wsID, id); err != nil {
		return err
	}
	h.submitIndex(queue.IndexActionDelete, &model.Todo{ID: id, WorkspaceID: wsID})
	return c.NoContent(http.StatusNoContent)
}

func (h *TodoHandler) submitIndex(action string, t *model.Todo) {
	if h.Indexer == nil {
		return
	}
	h.Indexer.Submit(queue.TodoIndexEvent{
		Action:      action,
		TodoID:      t.ID,
		WorkspaceID: t.WorkspaceID,
		Title:       t.Title,
		Status:      t.Status,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

func todoParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("todoId"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.Validation, "invalid todo id")
	}
	return id, nil
}
