// Package service holds the orchestration layer between HTTP handlers and
// the repositories.
package service

import (
	"context"
	"database/sql"
	"net/mail"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/utils"
)

// errInvalidCredentials is the single message for both "no such user" and
// "wrong password". Telling them apart would let callers enumerate
// registered emails.
var errInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid email or password")

const minPasswordLen = 8

// AuthService orchestrates registration, login and the refresh-token
// lifecycle over the user and token repositories. It owns the transactions
// that span both.
type AuthService struct {
	cfg    config.Config
	db     *sql.DB
	users  *repository.UserRepo
	tokens *repository.TokenRepo
}

func NewAuthService(cfg config.Config, db *sql.DB, users *repository.UserRepo, tokens *repository.TokenRepo) *AuthService {
	return &AuthService{cfg: cfg, db: db, users: users, tokens: tokens}
}

// TokenPair is a freshly issued access token plus the raw refresh secret.
// The raw secret appears here and in the HTTP response that carries it, and
// nowhere else.
type TokenPair struct {
	Access     utils.AccessToken
	RefreshRaw string
}

// Session is the result of register and login.
type Session struct {
	User *model.User
	TokenPair
}

// Register creates a user account and its first session. User row and
// initial refresh token are inserted in one transaction: either the account
// exists with a working session or nothing happened.
func (s *AuthService) Register(ctx context.Context, email, password string, name *string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password failed", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, "persistence unavailable", err)
	}
	defer func() { _ = tx.Rollback() }()

	uid, err := s.users.CreateTx(ctx, tx, email, hash, name)
	if err != nil {
		return nil, err
	}

	refreshRaw, err := s.storeRefreshTx(ctx, tx, uid)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "register failed", err)
	}

	access, err := utils.NewAccessToken(s.cfg.JWTSecret, uid, email, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "sign access token failed", err)
	}

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, TokenPair: TokenPair{Access: access, RefreshRaw: refreshRaw}}, nil
}

// Login verifies credentials and issues a fresh session. Each login gets
// its own refresh token; concurrent sessions per user are allowed by
// design.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	refreshRaw, err := utils.NewRefreshSecret()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generate refresh token failed", err)
	}
	exp := nowUTC().Add(s.cfg.RefreshTTL)
	if err := s.tokens.Create(ctx, u.ID, utils.HashRefreshSecret(refreshRaw), exp); err != nil {
		return nil, err
	}

	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "sign access token failed", err)
	}
	return &Session{User: u, TokenPair: TokenPair{Access: access, RefreshRaw: refreshRaw}}, nil
}

// Refresh exchanges a valid refresh secret for a new token pair, rotating
// the refresh token. Under concurrent double submission of the same secret
// exactly one call wins: the store's Rotate claims the old row inside its
// transaction and the loser's claim matches nothing.
func (s *AuthService) Refresh(ctx context.Context, refreshRaw string) (*TokenPair, error) {
	oldHash := utils.HashRefreshSecret(refreshRaw)

	t := s.tokens.Find(ctx, oldHash)
	if t == nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid or expired refresh token")
	}
	u, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.New(apperr.Unauthorized, "invalid or expired refresh token")
	}

	newRaw, err := utils.NewRefreshSecret()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generate refresh token failed", err)
	}
	exp := nowUTC().Add(s.cfg.RefreshTTL)
	if err := s.tokens.Rotate(ctx, u.ID, oldHash, utils.HashRefreshSecret(newRaw), exp); err != nil {
		return nil, err
	}

	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "sign access token failed", err)
	}
	return &TokenPair{Access: access, RefreshRaw: newRaw}, nil
}

// Logout revokes the given refresh token. It succeeds even when the token
// was already invalid; "cannot be used again" is already true then.
func (s *AuthService) Logout(ctx context.Context, refreshRaw string) error {
	return s.tokens.Revoke(ctx, utils.HashRefreshSecret(refreshRaw))
}

// ChangePassword verifies the current password, then swaps in the new hash
// and revokes every outstanding refresh token for the user in one
// transaction. A password change must end all other sessions.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.New(apperr.NotFound, "user not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return apperr.New(apperr.Unauthorized, "current password incorrect")
	}
	if len(next) < minPasswordLen {
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLen)
	}

	hash, err := utils.HashPassword(next, s.cfg.BcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "hash password failed", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, "persistence unavailable", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.users.UpdatePasswordTx(ctx, tx, userID, hash); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUserTx(ctx, tx, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "change password failed", err)
	}
	return nil
}

// storeRefreshTx generates a refresh secret and stores its hash inside the
// given transaction, returning the raw secret.
func (s *AuthService) storeRefreshTx(ctx context.Context, tx *sql.Tx, userID uint64) (string, error) {
	raw, err := utils.NewRefreshSecret()
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "generate refresh token failed", err)
	}
	exp := nowUTC().Add(s.cfg.RefreshTTL)
	if err := s.tokens.CreateTx(ctx, tx, userID, utils.HashRefreshSecret(raw), exp); err != nil {
		return "", err
	}
	return raw, nil
}

func nowUTC() time.Time { return time.Now().UTC() }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return apperr.New(apperr.Validation, "email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.New(apperr.Validation, "invalid email address")
	}
	if len(password) < minPasswordLen {
		return apperr.Newf(apperr.Validation, "password must be at least %d characters", minPasswordLen)
	}
	return nil
}
