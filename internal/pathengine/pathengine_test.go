package pathengine

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := store.New(db, zap.NewNop())
	return New(s), mock, func() { db.Close() }
}

func TestMaxLevelBelow(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(n.level\\), -1\\)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))

	level, err := e.MaxLevelBelow(context.Background(), e.store.DB(), 7)
	require.NoError(t, err)
	require.Equal(t, 3, level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxLevelBelowNoDescendants(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(n.level\\), -1\\)").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(-1))

	level, err := e.MaxLevelBelow(context.Background(), e.store.DB(), 99)
	require.NoError(t, err)
	require.Equal(t, -1, level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxDepthBelow(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(depth\\), 0\\)").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))

	depth, err := e.MaxDepthBelow(context.Background(), e.store.DB(), 1)
	require.NoError(t, err)
	require.Equal(t, 4, depth)
}

func TestDeepCopySubtreeRejectsNewParentInsideSourceSubtree(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	newParentID := int64(5)
	_, _, err := e.DeepCopySubtree(context.Background(), 1, &newParentID)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveSubtreeRejectsNewParentInsideOwnSubtree(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	newParentID := int64(3)
	err := e.MoveSubtree(context.Background(), 1, &newParentID)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
