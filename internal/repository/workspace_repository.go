package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
)

// WorkspaceRepo persists workspaces and their memberships. The invariant it
// protects is that a workspace always has at least one OWNER: any downgrade
// or removal of an owner re-reads the owner count under lock inside the same
// transaction that performs the change, so two concurrent admin actions
// cannot both see "2 owners" and leave zero behind.
type WorkspaceRepo struct{ DB *sql.DB }

func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo { return &WorkspaceRepo{DB: db} }

// Create inserts a workspace and its creator's OWNER membership as one
// transaction.
func (r *WorkspaceRepo) Create(ctx context.Context, name string, creatorID uint64) (*model.Workspace, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "persistence unavailable", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO workspaces (name, created_by) VALUES (?,?)", name, creatorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create workspace failed", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create workspace failed", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO workspace_members (workspace_id, user_id, role) VALUES (?,?,?)",
		id, creatorID, model.RoleOwner); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create membership failed", err)
	}

	var ws model.Workspace
	if err := tx.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at, updated_at FROM workspaces WHERE id=?", id).
		Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create workspace failed", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create workspace failed", err)
	}
	return &ws, nil
}

// ListForUser returns every workspace the user is a member of.
func (r *WorkspaceRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Workspace, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT w.id, w.name, w.created_by, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = ?
		ORDER BY w.id`, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list workspaces failed", err)
	}
	defer rows.Close()

	out := make([]model.Workspace, 0)
	for rows.Next() {
		var ws model.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "list workspaces failed", err)
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list workspaces failed", err)
	}
	return out, nil
}

// Get fetches a workspace by id, (nil, nil) when absent.
func (r *WorkspaceRepo) Get(ctx context.Context, id uint64) (*model.Workspace, error) {
	var ws model.Workspace
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at, updated_at FROM workspaces WHERE id=? LIMIT 1", id).
		Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query workspace failed", err)
	}
	return &ws, nil
}

// UpdateName renames a workspace.
func (r *WorkspaceRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE workspaces SET name=? WHERE id=?", name, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update workspace failed", err)
	}
	return nil
}

// Delete removes a workspace; memberships, todos and events go with it via
// ON DELETE CASCADE.
func (r *WorkspaceRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM workspaces WHERE id=?", id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete workspace failed", err)
	}
	return nil
}

// GetMembership returns the (workspace, user) membership row, (nil, nil)
// when the user is not a member. The revoked/absent distinction does not
// matter to authorization: both deny.
func (r *WorkspaceRepo) GetMembership(ctx context.Context, workspaceID, userID uint64) (*model.Membership, error) {
	var m model.Membership
	err := r.DB.QueryRowContext(ctx,
		"SELECT workspace_id, user_id, role, created_at FROM workspace_members WHERE workspace_id=? AND user_id=? LIMIT 1",
		workspaceID, userID).Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query membership failed", err)
	}
	return &m, nil
}

// ListMembers returns all members of a workspace joined with their user rows.
func (r *WorkspaceRepo) ListMembers(ctx context.Context, workspaceID uint64) ([]model.MemberDetail, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.email, u.name, m.role, m.created_at
		FROM workspace_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = ?
		ORDER BY m.created_at, u.id`, workspaceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list members failed", err)
	}
	defer rows.Close()

	out := make([]model.MemberDetail, 0)
	for rows.Next() {
		var (
			d    model.MemberDetail
			name sql.NullString
		)
		if err := rows.Scan(&d.UserID, &d.Email, &name, &d.Role, &d.JoinedAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "list members failed", err)
		}
		if name.Valid {
			d.Name = &name.String
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list members failed", err)
	}
	return out, nil
}

// AddMember inserts a membership. Duplicate membership is a Conflict; a
// workspace or user that does not exist is NotFound.
func (r *WorkspaceRepo) AddMember(ctx context.Context, workspaceID, userID uint64, role model.Role) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO workspace_members (workspace_id, user_id, role) VALUES (?,?,?)",
		workspaceID, userID, role)
	switch {
	case err == nil:
		return nil
	case isDuplicate(err):
		return apperr.New(apperr.Conflict, "user is already a member")
	case isFKViolation(err):
		return apperr.New(apperr.NotFound, "workspace or user not found")
	default:
		return apperr.Wrap(apperr.Internal, "add member failed", err)
	}
}

// UpdateMemberRole changes a member's role, refusing to demote the sole
// remaining OWNER.
func (r *WorkspaceRepo) UpdateMemberRole(ctx context.Context, workspaceID, userID uint64, role model.Role) error {
	return r.mutateMember(ctx, workspaceID, userID, role, false)
}

// RemoveMember deletes a membership, refusing to remove the sole remaining
// OWNER.
func (r *WorkspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID uint64) error {
	return r.mutateMember(ctx, workspaceID, userID, "", true)
}

// mutateMember performs a role update or removal with the last-owner guard.
// The target's current role and the owner count are read FOR UPDATE inside
// the same transaction as the mutation, which serializes concurrent owner
// changes on the workspace.
func (r *WorkspaceRepo) mutateMember(ctx context.Context, workspaceID, userID uint64, role model.Role, remove bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "persistence unavailable", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current model.Role
	err = tx.QueryRowContext(ctx,
		"SELECT role FROM workspace_members WHERE workspace_id=? AND user_id=? FOR UPDATE",
		workspaceID, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "not a member of this workspace")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "query membership failed", err)
	}

	losesOwner := current == model.RoleOwner && (remove || role != model.RoleOwner)
	if losesOwner {
		var owners int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM workspace_members WHERE workspace_id=? AND role=? FOR UPDATE",
			workspaceID, model.RoleOwner).Scan(&owners); err != nil {
			return apperr.Wrap(apperr.Internal, "count owners failed", err)
		}
		if owners <= 1 {
			return apperr.New(apperr.Validation, "workspace must keep at least one owner")
		}
	}

	if remove {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM workspace_members WHERE workspace_id=? AND user_id=?", workspaceID, userID)
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE workspace_members SET role=? WHERE workspace_id=? AND user_id=?", role, workspaceID, userID)
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update membership failed", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "update membership failed", err)
	}
	return nil
}
