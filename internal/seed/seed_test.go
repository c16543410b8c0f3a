package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/database/databasetest"
	"github.com/davebowl/Canna-spot-mobile/internal/seed"
)

func withTables(t *testing.T) *database.DB {
	t.Helper()

	db := databasetest.OpenMemory(t)
	databasetest.Exec(t, db,
		`CREATE TABLE sponsor (id INTEGER PRIMARY KEY AUTOINCREMENT, name VARCHAR(120) NOT NULL,
			url VARCHAR(255), logo VARCHAR(255), active BOOLEAN DEFAULT 1)`,
		`CREATE TABLE site_setting (id INTEGER PRIMARY KEY AUTOINCREMENT, site_name VARCHAR(120),
			maintenance_mode VARCHAR(10), custom_message TEXT, updated_at DATETIME)`,
	)

	return db
}

func count(t *testing.T, db *database.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))

	return n
}

func TestSeed_emptyTablesGetDefaults(t *testing.T) {
	t.Parallel()

	db := withTables(t)

	out, err := seed.Seed(context.Background(), db, seed.Defaults()...)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, seed.Outcome{Table: "sponsor", Inserted: 6}, out[0])
	assert.Equal(t, seed.Outcome{Table: "site_setting", Inserted: 1}, out[1])

	assert.Equal(t, 6, count(t, db, "sponsor"))

	var url string
	require.NoError(t, db.QueryRowContext(context.Background(),
		`SELECT url FROM sponsor WHERE name = '420 Equipment'`).Scan(&url))
	assert.Equal(t, "https://example.com/equipment", url)
}

func TestSeed_isIdempotent(t *testing.T) {
	t.Parallel()

	db := withTables(t)
	ctx := context.Background()

	_, err := seed.Seed(ctx, db, seed.Defaults()...)
	require.NoError(t, err)

	out, err := seed.Seed(ctx, db, seed.Defaults()...)
	require.NoError(t, err)

	for _, o := range out {
		assert.True(t, o.Skipped, o.Table)
		assert.Zero(t, o.Inserted, o.Table)
	}

	assert.Equal(t, 6, count(t, db, "sponsor"))
	assert.Equal(t, 1, count(t, db, "site_setting"))
}

func TestSeed_nonEmptyTableIsLeftAlone(t *testing.T) {
	t.Parallel()

	db := withTables(t)
	databasetest.Exec(t, db, `INSERT INTO sponsor (name) VALUES ('Local Shop')`)

	out, err := seed.Seed(context.Background(), db, seed.Defaults()...)
	require.NoError(t, err)
	assert.True(t, out[0].Skipped)
	assert.False(t, out[1].Skipped)
	assert.Equal(t, 1, count(t, db, "sponsor"))
}

func TestSeed_failedSetRollsBack(t *testing.T) {
	t.Parallel()

	db := withTables(t)

	bad := seed.Set{
		Table:   "sponsor",
		Columns: []string{"name"},
		Rows:    [][]any{{"first"}, {nil}},
	}

	_, err := seed.Seed(context.Background(), db, bad)
	require.ErrorIs(t, err, seed.ErrSeedFailed)
	assert.Zero(t, count(t, db, "sponsor"), "partial set must not survive")
}
