package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/apperr"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

const membershipQuery = "SELECT workspace_id, user_id, role, created_at FROM workspace_members WHERE workspace_id=? AND user_id=? LIMIT 1"

func runRoleGate(t *testing.T, min model.Role, workspaceID string, setup func(sqlmock.Sqlmock)) (error, echo.Context) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if setup != nil {
		setup(mock)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(workspaceID)
	c.Set(middleware.CtxUserID, uint64(7))

	h := middleware.RequireWorkspaceRole(repository.NewWorkspaceRepo(db), min)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	gateErr := h(c)
	assert.NoError(t, mock.ExpectationsWereMet())
	return gateErr, c
}

func membershipRow(role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"workspace_id", "user_id", "role", "created_at"}).
		AddRow(1, 7, role, time.Now().UTC())
}

func TestRequireWorkspaceRole_InvalidID(t *testing.T) {
	err, _ := runRoleGate(t, model.RoleMember, "abc", nil)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	err, _ = runRoleGate(t, model.RoleMember, "0", nil)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestRequireWorkspaceRole_NotAMember(t *testing.T) {
	err, _ := runRoleGate(t, model.RoleMember, "1", func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(regexp.QuoteMeta(membershipQuery)).
			WithArgs(uint64(1), uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"workspace_id", "user_id", "role", "created_at"}))
	})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestRequireWorkspaceRole_MemberBelowAdminGate(t *testing.T) {
	err, _ := runRoleGate(t, model.RoleAdmin, "1", func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(regexp.QuoteMeta(membershipQuery)).
			WithArgs(uint64(1), uint64(7)).
			WillReturnRows(membershipRow("MEMBER"))
	})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "ADMIN")
}

// The hierarchy is numeric: OWNER clears every gate, ADMIN clears the
// MEMBER gate.
func TestRequireWorkspaceRole_HigherRolePasses(t *testing.T) {
	err, c := runRoleGate(t, model.RoleMember, "1", func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(regexp.QuoteMeta(membershipQuery)).
			WithArgs(uint64(1), uint64(7)).
			WillReturnRows(membershipRow("OWNER"))
	})
	require.NoError(t, err)

	m := middleware.CurrentMembership(c)
	require.NotNil(t, m)
	assert.Equal(t, model.RoleOwner, m.Role)
}

func TestRequireWorkspaceRole_ExactRolePasses(t *testing.T) {
	err, _ := runRoleGate(t, model.RoleAdmin, "1", func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(regexp.QuoteMeta(membershipQuery)).
			WithArgs(uint64(1), uint64(7)).
			WillReturnRows(membershipRow("ADMIN"))
	})
	assert.NoError(t, err)
}
