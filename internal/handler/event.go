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
	"github.com/taskhive/taskhive/internal/repository"
)

// EventHandler serves workspace-scoped calendar events.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

type eventReq struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	if req.StartsAt == nil || req.EndsAt == nil {
		return apperr.New(apperr.Validation, "starts_at and ends_at are required")
	}
	if !req.EndsAt.After(*req.StartsAt) {
		return apperr.New(apperr.Validation, "ends_at must be after starts_at")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ev := model.CalendarEvent{
		WorkspaceID: middleware.CurrentMembership(c).WorkspaceID,
		Title:       strings.TrimSpace(*req.Title),
		Description: req.Description,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		CreatedBy:   middleware.CurrentUserID(c),
	}
	if err := h.Events.Create(ctx, &ev); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Events.ListByWorkspace(ctx, middleware.CurrentMembership(c).WorkspaceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *EventHandler) Get(c echo.Context) error {
	id, err := eventParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ev, err := h.Events.Get(ctx, middleware.CurrentMembership(c).WorkspaceID, id)
	if err != nil {
		return err
	}
	if ev == nil {
		return apperr.New(apperr.NotFound, "event not found")
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Update(c echo.Context) error {
	id, err := eventParam(c)
	if err != nil {
		return err
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	wsID := middleware.CurrentMembership(c).WorkspaceID
	ev, err := h.Events.Get(ctx, wsID, id)
	if err != nil {
		return err
	}
	if ev == nil {
		return apperr.New(apperr.NotFound, "event not found")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return apperr.New(apperr.Validation, "title cannot be empty")
		}
		ev.Title = title
	}
	if req.Description != nil {
		ev.Description = req.Description
	}
	if req.StartsAt != nil {
		ev.StartsAt = req.StartsAt.UTC()
	}
	if req.EndsAt != nil {
		ev.EndsAt = req.EndsAt.UTC()
	}
	if !ev.EndsAt.After(ev.StartsAt) {
		return apperr.New(apperr.Validation, "ends_at must be after starts_at")
	}

	if err := h.Events.Update(ctx, ev); err != nil {
		return err
	}
	updated, err := h.Events.Get(ctx, wsID, id)
	if err != nil {
		return err
	}
	if updated == nil {
		return apperr.New(apperr.NotFound, "event not found")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) Delete(c echo.Context) error {
	id, err := eventParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Delete(ctx, middleware.CurrentMembership(c).WorkspaceID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func eventParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("eventId"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.Validation, "invalid event id")
	}
	return id, nil
}
