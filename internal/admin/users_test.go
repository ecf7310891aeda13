package admin

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/pathengine"
	"github.com/tmkeil/variantconf/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := store.New(db, zap.NewNop())
	return New(s, pathengine.New(s)), mock, func() { db.Close() }
}

func TestDeleteUserRejectsSelfDelete(t *testing.T) {
	e, _, closeDB := newTestEngine(t)
	defer closeDB()

	err := e.DeleteUser(context.Background(), 5, 5)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIntegrity))
}

func TestDeleteUserRejectsInitialAdmin(t *testing.T) {
	e, _, closeDB := newTestEngine(t)
	defer closeDB()

	err := e.DeleteUser(context.Background(), 2, 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIntegrity))
}

func TestDeleteUserRejectsLastActiveAdmin(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, username, password_hash, role, active, must_change_password").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "active", "must_change_password"}).
			AddRow(int64(2), "root-admin", "hash", "admin", true, false))
	mock.ExpectQuery("SELECT id FROM users WHERE role = 'admin' AND active FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectRollback()

	err := e.DeleteUser(context.Background(), 9, 2)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIntegrity))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserAllowsNonLastAdmin(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, username, password_hash, role, active, must_change_password").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "active", "must_change_password"}).
			AddRow(int64(2), "second-admin", "hash", "admin", true, false))
	mock.ExpectQuery("SELECT id FROM users WHERE role = 'admin' AND active FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)).AddRow(int64(3)))
	mock.ExpectExec("DELETE FROM users WHERE id = \\$1").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := e.DeleteUser(context.Background(), 9, 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
