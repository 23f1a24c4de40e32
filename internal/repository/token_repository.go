package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
)

// TokenRepo owns the lifecycle of refresh tokens. A token moves from active
// to revoked (explicit) or expired (implicit, by timestamp); both terminal
// states look identical to callers, which only ever see "usable or not".
// Rows are never deleted.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// execer lets insert helpers run against either the pool or a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create inserts a refresh-token hash row with the given expiry. A user id
// that references nobody surfaces as NotFound, a hash collision as Conflict;
// both are integrity failures and must not be swallowed.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	return insertToken(ctx, r.DB, userID, tokenHash, expiresAt)
}

// CreateTx is Create inside an existing transaction.
func (r *TokenRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, tokenHash string, expiresAt time.Time) error {
	return insertToken(ctx, tx, userID, tokenHash, expiresAt)
}

func insertToken(ctx context.Context, ex execer, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := ex.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt)
	switch {
	case err == nil:
		return nil
	case isFKViolation(err):
		return apperr.New(apperr.NotFound, "user not found")
	case isDuplicate(err):
		return apperr.Wrap(apperr.Conflict, "refresh token hash collision", err)
	default:
		return apperr.Wrap(apperr.Internal, "store refresh token failed", err)
	}
}

// Find returns the token row for tokenHash if it is currently usable.
// Missing, expired and revoked tokens all come back as nil. Read and
// connectivity failures also come back as nil: an unreachable database must
// deny the session, never grant it, and must not be distinguishable from an
// invalid token by the caller.
func (r *TokenRepo) Find(ctx context.Context, tokenHash string) *model.RefreshToken {
	var (
		t       model.RefreshToken
		revoked sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revoked)
	if err != nil {
		return nil // fail closed
	}
	if revoked.Valid {
		t.RevokedAt = &revoked.Time
	}
	if !t.Usable(time.Now().UTC()) {
		return nil
	}
	return &t
}

// Revoke marks a token revoked. Revoking a token that is already revoked or
// does not exist is a no-op, not an error: the contract is "this hash is not
// usable afterwards", which already holds.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "revoke refresh token failed", err)
	}
	return nil
}

// RevokeAllForUserTx revokes every active token for a user inside an
// existing transaction. Used by password change, which must invalidate all
// outstanding sessions atomically with the new hash.
func (r *TokenRepo) RevokeAllForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "revoke refresh tokens failed", err)
	}
	return nil
}

// Rotate atomically revokes the token identified by oldHash and inserts a
// fresh one for the same user. The revoke must claim exactly one still
// active row; if a concurrent rotation of the same token got there first the
// update matches nothing and the whole transaction aborts Unauthorized.
// This is what makes a spent refresh token unreplayable: a successor never
// exists while the old token is still honorable, and the old token is never
// revoked without its successor committing alongside it.
func (r *TokenRepo) Rotate(ctx context.Context, userID uint64, oldHash, newHash string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "persistence unavailable", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		oldHash)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "revoke refresh token failed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "revoke refresh token failed", err)
	}
	if n != 1 {
		return apperr.New(apperr.Unauthorized, "invalid or expired refresh token")
	}

	if err := insertToken(ctx, tx, userID, newHash, expiresAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "rotate refresh token failed", err)
	}
	return nil
}
