package successor

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

var successorColumns = []string{
	"id", "source_node_id", "target_node_id", "target_full_code", "replacement_type",
	"severity", "effective_date", "show_warning", "migration_notes", "created_at",
}

func fc(s string) *string { return &s }

func TestPairingForDirectWhenCountsMatchAndFullyCoded(t *testing.T) {
	sources := []*model.Node{{ID: 1, FullTypeCode: fc("BCC-GS")}}
	targets := []*model.Node{{ID: 2, FullTypeCode: fc("BCC-GX")}}

	pairs := pairingFor(sources, targets)
	require.Len(t, pairs, 1)
	assert.Equal(t, "direct", pairs[0].replacementType)
	assert.Equal(t, model.SeverityWarning, pairs[0].severity)
	assert.Equal(t, "BCC-GX", pairs[0].target)
}

func TestPairingForCandidateCrossProductWhenCountsDiffer(t *testing.T) {
	sources := []*model.Node{{ID: 1, FullTypeCode: fc("BCC-GS")}}
	targets := []*model.Node{
		{ID: 2, FullTypeCode: fc("BCC-GX")},
		{ID: 3, FullTypeCode: fc("BCC-GY")},
	}
	pairs := pairingFor(sources, targets)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.Equal(t, "candidate", p.replacementType)
		assert.Equal(t, model.SeverityInfo, p.severity)
		assert.Contains(t, p.notes, "1 of 2 possible replacements")
	}
}

func TestPairingForCandidateWhenNodeLacksFullCode(t *testing.T) {
	sources := []*model.Node{{ID: 1, FullTypeCode: nil}}
	targets := []*model.Node{{ID: 2, FullTypeCode: fc("BCC-GX")}}
	pairs := pairingFor(sources, targets)
	require.Len(t, pairs, 1)
	assert.Equal(t, "candidate", pairs[0].replacementType)
}

func TestAllHaveFullCode(t *testing.T) {
	assert.True(t, allHaveFullCode([]*model.Node{{FullTypeCode: fc("A")}}))
	assert.False(t, allHaveFullCode([]*model.Node{{FullTypeCode: nil}}))
}

func TestResolveForPathPoolsAcrossNodesAndPrefersHigherSeverity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := store.New(db, zap.NewNop())
	e := New(s)
	e.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	// n1 (earlier in path) carries only an info-severity successor.
	mock.ExpectQuery("FROM product_successors").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(successorColumns).
			AddRow(int64(10), int64(1), int64(100), "BCC-INFO", "candidate",
				"info", nil, true, "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	// n2 (later in path) carries a critical-severity successor, which
	// must win even though it is reached second.
	mock.ExpectQuery("FROM product_successors").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(successorColumns).
			AddRow(int64(11), int64(2), int64(200), "BCC-CRIT", "direct",
				"critical", nil, true, "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	succ, has, err := e.ResolveForPath(context.Background(), s.DB(), []int64{1, 2})
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, model.SeverityCritical, succ.Severity)
	assert.Equal(t, "BCC-CRIT", *succ.TargetFullCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPairKeyAndDerefID(t *testing.T) {
	assert.Equal(t, "1||", pairKey(1, "", ""))
	assert.Equal(t, "", derefID(nil))
	id := int64(7)
	assert.Equal(t, "7", derefID(&id))
}
