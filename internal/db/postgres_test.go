//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestStore(t *testing.T) *Postgres {
	t.Helper()

	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	store, err := NewPostgres(dsn)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() {
		store.db.ExecContext(ctx, "TRUNCATE run_creation_runs CASCADE")
		store.Close()
	})
	return store
}

func TestPostgres_SaveAndLoadLatest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store := getTestStore(t)

	_, _, err := store.LatestTallies(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	base := time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-old", "run-new"} {
		err := store.SaveRun(ctx, &models.Report{
			RunID:       id,
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
			Tallies: []models.TeamTally{
				{TeamID: 2, RunTally: models.RunTally{HRRuns: 10 + i}},
				{TeamID: 1, RunTally: models.RunTally{HRRuns: 4, HRTwoOutRuns: 1, TwoOutRuns: 3}},
			},
		})
		require.NoError(t, err)
	}

	runID, tallies, err := store.LatestTallies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-new", runID)
	require.Len(t, tallies, 2)
	assert.Equal(t, models.TeamID(1), tallies[0].TeamID)
	assert.Equal(t, 4, tallies[0].TwoOutRBI())
	assert.Equal(t, 11, tallies[1].HRRuns)
}

func TestPostgres_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	store := getTestStore(t)

	report := &models.Report{RunID: "dup", GeneratedAt: time.Now()}
	require.NoError(t, store.SaveRun(ctx, report))
	assert.Error(t, store.SaveRun(ctx, report))
}
