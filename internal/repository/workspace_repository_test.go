package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/model"
)

const (
	memberForUpdateQuery = "SELECT role FROM workspace_members WHERE workspace_id=? AND user_id=? FOR UPDATE"
	ownerCountQuery      = "SELECT COUNT(*) FROM workspace_members WHERE workspace_id=? AND role=? FOR UPDATE"
)

func newWorkspaceRepo(t *testing.T) (*WorkspaceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWorkspaceRepo(db), mock
}

func TestGetMembership_NotAMember(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectQuery("SELECT workspace_id, user_id, role, created_at FROM workspace_members").
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"workspace_id", "user_id", "role", "created_at"}))

	m, err := repo.GetMembership(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember_Duplicate(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workspace_members (workspace_id, user_id, role) VALUES (?,?,?)")).
		WillReturnError(errors.New("Error 1062: Duplicate entry"))

	err := repo.AddMember(context.Background(), 1, 2, model.RoleMember)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Downgrading the sole remaining OWNER must be rejected with a 400-class
// error, regardless of who asks. The owner count is read under lock inside
// the same transaction as the would-be change.
func TestUpdateMemberRole_SoleOwnerProtected(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(memberForUpdateQuery)).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("OWNER"))
	mock.ExpectQuery(regexp.QuoteMeta(ownerCountQuery)).
		WithArgs(uint64(1), model.RoleOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.UpdateMemberRole(context.Background(), 1, 2, model.RoleAdmin)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMember_SoleOwnerProtected(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(memberForUpdateQuery)).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("OWNER"))
	mock.ExpectQuery(regexp.QuoteMeta(ownerCountQuery)).
		WithArgs(uint64(1), model.RoleOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.RemoveMember(context.Background(), 1, 2)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// With two owners, removing one of them goes through.
func TestRemoveMember_OneOfTwoOwners(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(memberForUpdateQuery)).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("OWNER"))
	mock.ExpectQuery(regexp.QuoteMeta(ownerCountQuery)).
		WithArgs(uint64(1), model.RoleOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workspace_members WHERE workspace_id=? AND user_id=?")).
		WithArgs(uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.RemoveMember(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Removing a non-owner never consults the owner count.
func TestRemoveMember_PlainMember(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(memberForUpdateQuery)).
		WithArgs(uint64(1), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("MEMBER"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workspace_members WHERE workspace_id=? AND user_id=?")).
		WithArgs(uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.RemoveMember(context.Background(), 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Promoting an OWNER to OWNER (no-op) and promoting a member upward skip
// the guard as well.
func TestUpdateMemberRole_PromotionSkipsGuard(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(memberForUpdateQuery)).
		WithArgs(uint64(1), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("MEMBER"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE workspace_members SET role=? WHERE workspace_id=? AND user_id=?")).
		WithArgs(model.RoleAdmin, uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.UpdateMemberRole(context.Background(), 1, 3, model.RoleAdmin))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMemberRole_TargetNotMember(t *testing.T) {
	repo, mock := newWorkspaceRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(memberForUpdateQuery)).
		WithArgs(uint64(1), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))
	mock.ExpectRollback()

	err := repo.UpdateMemberRole(context.Background(), 1, 9, model.RoleAdmin)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
