//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/tracker"
)

func TestTracker_fullLifecycle(t *testing.T) {
	t.Parallel()

	db := SetupPostgres(t)
	ctx := context.Background()
	tr := tracker.New(db)

	require.NoError(t, tr.EnsureTable(ctx))
	require.NoError(t, tr.EnsureTable(ctx), "EnsureTable is idempotent")

	applied, err := tr.GetApplied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	known, err := tr.Known(ctx)
	require.NoError(t, err)
	assert.Empty(t, known)

	require.NoError(t, tr.Record(ctx, db, tracker.RecordParams{
		Version:        "table:user",
		Kind:           "table",
		Checksum:       "abc123",
		CatalogVersion: "7",
		DurationMs:     42,
	}))

	applied, err = tr.GetApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "table:user", applied[0].Version)
	assert.Equal(t, "abc123", applied[0].Checksum)
	assert.Equal(t, 42, applied[0].DurationMs)
	assert.Equal(t, tracker.StatusApplied, applied[0].Status)
	assert.False(t, applied[0].AppliedAt.IsZero())

	// Recording again upserts instead of duplicating.
	require.NoError(t, tr.Record(ctx, db, tracker.RecordParams{
		Version:  "table:user",
		Kind:     "table",
		Checksum: "def456",
		Status:   tracker.StatusPresent,
	}))

	known, err = tr.Known(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"table:user": "def456"}, known)

	applied, err = tr.GetApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, tracker.StatusPresent, applied[0].Status)
}

func TestTracker_recordInRolledBackTransaction_leavesNoRow(t *testing.T) {
	t.Parallel()

	db := SetupPostgres(t)
	ctx := context.Background()
	tr := tracker.New(db)

	require.NoError(t, tr.EnsureTable(ctx))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, tr.Record(ctx, tx, tracker.RecordParams{Version: "column:user.bio", Kind: "column", Checksum: "x"}))
	require.NoError(t, tx.Rollback())

	known, err := tr.Known(ctx)
	require.NoError(t, err)
	assert.Empty(t, known)
}
