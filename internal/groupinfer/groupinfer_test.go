package groupinfer

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, store.Querier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := store.New(db, zap.NewNop())
	return New(s), mock, s.DB()
}

var leafColumns = []string{
	"id", "code", "name", "label", "label_en", "level", "position",
	"pattern", "group_name", "full_typecode", "is_intermediate_code", "pictures", "links", "parent_id",
}

func TestDerivedGroupUniqueWhenEveryLeafSharesGroupName(t *testing.T) {
	e, mock, q := newTestEngine(t)
	rows := sqlmock.NewRows(leafColumns).
		AddRow(10, "GS", "Leather", "Lederausstattung", "Leather trim", 2, 0, nil, "Seats", "BCC-GS", false, []byte("[]"), []byte("[]"), 1).
		AddRow(11, "GX", "Cloth", "Stoffausstattung", "Cloth trim", 2, 0, nil, "Seats", "BCC-GX", false, []byte("[]"), []byte("[]"), 1)
	mock.ExpectQuery("SELECT DISTINCT").WillReturnRows(rows)

	res, err := e.DerivedGroup(context.Background(), q, 1, nil)
	require.NoError(t, err)
	require.True(t, res.IsUnique)
	require.Equal(t, []string{"Seats"}, res.Candidates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDerivedGroupAmbiguousWhenLeavesDisagree(t *testing.T) {
	e, mock, q := newTestEngine(t)
	rows := sqlmock.NewRows(leafColumns).
		AddRow(10, "GS", "Leather", "Lederausstattung", "Leather trim", 2, 0, nil, "Seats", "BCC-GS", false, []byte("[]"), []byte("[]"), 1).
		AddRow(20, "M3", "Metallic", "Metallic", "Metallic paint", 2, 0, nil, "Paint", "BCC-M3", false, []byte("[]"), []byte("[]"), 1)
	mock.ExpectQuery("SELECT DISTINCT").WillReturnRows(rows)

	res, err := e.DerivedGroup(context.Background(), q, 1, nil)
	require.NoError(t, err)
	require.False(t, res.IsUnique)
	require.Equal(t, []string{"Paint", "Seats"}, res.Candidates)
	require.NoError(t, mock.ExpectationsWereMet())
}
