package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/database/databasetest"
)

func TestTime_Scan(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		src  any
	}{
		{name: "time value", src: want},
		{name: "current_timestamp text", src: "2024-03-01 12:30:00"},
		{name: "fractional text", src: "2024-03-01 12:30:00.000000"},
		{name: "rfc3339 bytes", src: []byte("2024-03-01T12:30:00Z")},
		{name: "offset text", src: "2024-03-01 14:30:00+02:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got database.Time
			require.NoError(t, got.Scan(tt.src))

			assert.True(t, got.Valid)
			assert.True(t, want.Equal(got.Time), "got %s", got.Time)
		})
	}
}

func TestTime_Scan_null(t *testing.T) {
	t.Parallel()

	got := database.Time{Valid: true}
	require.NoError(t, got.Scan(nil))

	assert.False(t, got.Valid)
}

func TestTime_Scan_garbage(t *testing.T) {
	t.Parallel()

	var got database.Time

	require.Error(t, got.Scan("yesterday"))
	require.Error(t, got.Scan(42))
}

func TestTime_roundTripThroughSQLite(t *testing.T) {
	t.Parallel()

	db := databasetest.OpenMemory(t)
	ctx := context.Background()
	databasetest.Exec(t, db, "CREATE TABLE t (at DATETIME, dflt DATETIME DEFAULT CURRENT_TIMESTAMP)")

	at := time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC)
	_, err := db.ExecContext(ctx, "INSERT INTO t (at) VALUES (?)", db.Dialect.TimeArg(at))
	require.NoError(t, err)

	var got, dflt database.Time
	require.NoError(t, db.QueryRowContext(ctx, "SELECT at, dflt FROM t").Scan(&got, &dflt))

	assert.True(t, at.Equal(got.Time))
	assert.True(t, dflt.Valid)
}
