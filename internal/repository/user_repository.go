package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
)

// UserRepo persists user accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, name, created_at, updated_at"

// CreateTx inserts a user inside an existing transaction and returns the new
// id. The email must already be normalized (lower-cased, trimmed) by the
// service layer. A duplicate email comes back as a Conflict.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, email, passwordHash string, name *string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name) VALUES (?,?,?)",
		email, passwordHash, name)
	if err != nil {
		if isDuplicate(err) {
			return 0, apperr.New(apperr.Conflict, "email already registered")
		}
		return 0, apperr.Wrap(apperr.Internal, "create user failed", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "create user failed", err)
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. A missing user is (nil, nil)
// so the caller decides what absence means; for login it must be
// indistinguishable from a bad password.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id, (nil, nil) when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u    model.User
		name sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query user failed", err)
	}
	if name.Valid {
		u.Name = &name.String
	}
	return &u, nil
}

// UpdateName sets or clears the display name.
func (r *UserRepo) UpdateName(ctx context.Context, id uint64, name *string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", name, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update user failed", err)
	}
	return nil
}

// UpdatePasswordTx replaces the password hash inside an existing
// transaction. It is only ever called together with revoking the user's
// refresh tokens; the two must commit or roll back as one unit.
func (r *UserRepo) UpdatePasswordTx(ctx context.Context, tx *sql.Tx, id uint64, passwordHash string) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update password failed", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}
