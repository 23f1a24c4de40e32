package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
)

// TodoRepo persists todos. All queries are scoped by workspace id so a todo
// can never be read or mutated through a workspace the caller was not
// authorized for.
type TodoRepo struct{ DB *sql.DB }

func NewTodoRepo(db *sql.DB) *TodoRepo { return &TodoRepo{DB: db} }

const todoColumns = "id, workspace_id, title, description, status, due_at, assignee_id, created_by, created_at, updated_at"

// Create inserts a todo and reads the row back to populate defaults and
// timestamps.
func (r *TodoRepo) Create(ctx context.Context, t *model.Todo) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO todos (workspace_id, title, description, status, due_at, assignee_id, created_by) VALUES (?,?,?,?,?,?,?)",
		t.WorkspaceID, t.Title, t.Description, t.Status, t.DueAt, t.AssigneeID, t.CreatedBy)
	if err != nil {
		if isFKViolation(err) {
			return apperr.New(apperr.NotFound, "workspace or assignee not found")
		}
		return apperr.Wrap(apperr.Internal, "create todo failed", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create todo failed", err)
	}
	created, err := r.Get(ctx, t.WorkspaceID, uint64(id))
	if err != nil {
		return err
	}
	if created == nil {
		return apperr.New(apperr.Internal, "create todo failed")
	}
	*t = *created
	return nil
}

// ListByWorkspace returns all todos in a workspace.
func (r *TodoRepo) ListByWorkspace(ctx context.Context, workspaceID uint64) ([]model.Todo, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE workspace_id=? ORDER BY id", workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list todos failed", err)
	}
	defer rows.Close()

	out := make([]model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list todos failed", err)
	}
	return out, nil
}

// Get fetches one todo within a workspace, (nil, nil) when absent.
func (r *TodoRepo) Get(ctx context.Context, workspaceID, id uint64) (*model.Todo, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE workspace_id=? AND id=? LIMIT 1", workspaceID, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Update writes mutable fields of an existing todo.
func (r *TodoRepo) Update(ctx context.Context, t *model.Todo) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE todos SET title=?, description=?, status=?, due_at=?, assignee_id=? WHERE workspace_id=? AND id=?",
		t.Title, t.Description, t.Status, t.DueAt, t.AssigneeID, t.WorkspaceID, t.ID)
	if err != nil {
		if isFKViolation(err) {
			return apperr.New(apperr.NotFound, "assignee not found")
		}
		return apperr.Wrap(apperr.Internal, "update todo failed", err)
	}
	return nil
}

// Delete removes a todo, NotFound when it is not in the workspace.
func (r *TodoRepo) Delete(ctx context.Context, workspaceID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM todos WHERE workspace_id=? AND id=?", workspaceID, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete todo failed", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.NotFound, "todo not found")
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

// scanTodo reads a todo row, mapping the nullable columns (description,
// due_at, assignee_id) onto pointer fields without any dynamic casting.
func scanTodo(row rowScanner) (*model.Todo, error) {
	var (
		t        model.Todo
		desc     sql.NullString
		dueAt    sql.NullTime
		assignee sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.Title, &desc, &t.Status, &dueAt, &assignee,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "scan todo failed", err)
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	if dueAt.Valid {
		utc := dueAt.Time.UTC()
		t.DueAt = &utc
	}
	if assignee.Valid {
		id := uint64(assignee.Int64)
		t.AssigneeID = &id
	}
	return &t, nil
}
