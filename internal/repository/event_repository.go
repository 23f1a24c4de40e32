package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
)

// EventRepo persists calendar events, workspace-scoped like TodoRepo.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "id, workspace_id, title, description, starts_at, ends_at, created_by, created_at, updated_at"

func (r *EventRepo) Create(ctx context.Context, ev *model.CalendarEvent) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO calendar_events (workspace_id, title, description, starts_at, ends_at, created_by) VALUES (?,?,?,?,?,?)",
		ev.WorkspaceID, ev.Title, ev.Description, ev.StartsAt, ev.EndsAt, ev.CreatedBy)
	if err != nil {
		if isFKViolation(err) {
			return apperr.New(apperr.NotFound, "workspace not found")
		}
		return apperr.Wrap(apperr.Internal, "create event failed", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create event failed", err)
	}
	created, err := r.Get(ctx, ev.WorkspaceID, uint64(id))
	if err != nil {
		return err
	}
	if created == nil {
		return apperr.New(apperr.Internal, "create event failed")
	}
	*ev = *created
	return nil
}

func (r *EventRepo) ListByWorkspace(ctx context.Context, workspaceID uint64) ([]model.CalendarEvent, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM calendar_events WHERE workspace_id=? ORDER BY starts_at, id", workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list events failed", err)
	}
	defer rows.Close()

	out := make([]model.CalendarEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list events failed", err)
	}
	return out, nil
}

func (r *EventRepo) Get(ctx context.Context, workspaceID, id uint64) (*model.CalendarEvent, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM calendar_events WHERE workspace_id=? AND id=? LIMIT 1", workspaceID, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ev, err
}

func (r *EventRepo) Update(ctx context.Context, ev *model.CalendarEvent) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE calendar_events SET title=?, description=?, starts_at=?, ends_at=? WHERE workspace_id=? AND id=?",
		ev.Title, ev.Description, ev.StartsAt, ev.EndsAt, ev.WorkspaceID, ev.ID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update event failed", err)
	}
	return nil
}

func (r *EventRepo) Delete(ctx context.Context, workspaceID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM calendar_events WHERE workspace_id=? AND id=?", workspaceID, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete event failed", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.NotFound, "event not found")
	}
	return nil
}

func scanEvent(row rowScanner) (*model.CalendarEvent, error) {
	var (
		ev   model.CalendarEvent
		desc sql.NullString
	)
	err := row.Scan(&ev.ID, &ev.WorkspaceID, &ev.Title, &desc, &ev.StartsAt, &ev.EndsAt,
		&ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "scan event failed", err)
	}
	if desc.Valid {
		ev.Description = &desc.String
	}
	return &ev, nil
}
