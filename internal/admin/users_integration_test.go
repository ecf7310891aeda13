//go:build integration
// +build integration

package admin

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/pathengine"
	"github.com/tmkeil/variantconf/internal/store"
)

// TestDeleteUserConcurrentGuardNeverReachesZeroAdmins drives two
// transactions at an otherwise-identical admin pair through DeleteUser
// at the same time. sqlmock cannot exercise this: the guard's safety
// depends on Postgres actually blocking the second transaction's
// `FOR UPDATE` on the first's locked rows, which only a live connection
// can demonstrate. Run against a real database with
// `go test -tags=integration -run Concurrent ./internal/admin`.
func TestDeleteUserConcurrentGuardNeverReachesZeroAdmins(t *testing.T) {
	dsn := os.Getenv("DATABASE_TEST_DSN")
	if dsn == "" {
		t.Skip("DATABASE_TEST_DSN not set")
	}
	ctx := context.Background()
	log := zap.NewNop()

	s, err := store.Open(ctx, dsn, log)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	e := New(s, pathengine.New(s))

	var adminIDs [2]int64
	for i := range adminIDs {
		id, err := e.CreateUser(ctx, randomUsername(t, i), "hash", model.RoleAdmin)
		require.NoError(t, err)
		adminIDs[i] = id
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = e.DeleteUser(ctx, 1, adminIDs[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one of the two concurrent deletes must win the race")

	remaining, err := s.DB().QueryContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'admin' AND active`)
	require.NoError(t, err)
	defer remaining.Close()
	require.True(t, remaining.Next())
	var n int
	require.NoError(t, remaining.Scan(&n))
	require.GreaterOrEqual(t, n, 1, "at least one admin must remain active")
}

func randomUsername(t *testing.T, i int) string {
	t.Helper()
	return t.Name() + "-" + string(rune('a'+i))
}
