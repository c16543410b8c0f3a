package migration_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/migration"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

func dialect(t *testing.T, e database.Engine) database.Dialect {
	t.Helper()

	d, err := database.DialectFor(e)
	require.NoError(t, err)

	return d
}

func allPresent(cat *schema.Catalog) []string {
	var out []string
	for _, it := range cat.Items() {
		out = append(out, it.ID())
	}

	return out
}

func without(ids []string, drop ...string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}

	var out []string

	for _, id := range ids {
		if !skip[id] {
			out = append(out, id)
		}
	}

	return out
}

func TestBuild_emptyDatabase_createsEveryTableInDependencyOrder(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()

	plan, err := migration.Build(cat, introspect.NewObserved(), dialect(t, database.SQLite))
	require.NoError(t, err)

	require.Len(t, plan.Steps, len(cat.Tables))

	created := make(map[string]bool)

	for _, s := range plan.Steps {
		assert.Equal(t, migration.CreateTable, s.Kind)

		tbl, ok := cat.Table(s.Table)
		require.True(t, ok)

		for _, ref := range schema.References(tbl) {
			assert.True(t, ref == tbl.Name || created[ref], "%s created before %s", s.Table, ref)
		}

		created[s.Table] = true
	}
}

func TestBuild_satisfiedSchema_isEmpty(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()

	plan, err := migration.Build(cat, introspect.NewObserved(allPresent(cat)...), dialect(t, database.Postgres))
	require.NoError(t, err)

	assert.True(t, plan.Empty())
	assert.Equal(t, schema.CatalogVersion, plan.CatalogVersion)
}

func TestBuild_missingColumns_inDeclarationOrder(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()
	present := without(allPresent(cat),
		"column:user.seen", "column:user.avatar", "column:user.status",
		"column:music_bot.loop_mode",
	)

	plan, err := migration.Build(cat, introspect.NewObserved(present...), dialect(t, database.SQLite))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"column:user.avatar", "column:user.status", "column:user.seen", "column:music_bot.loop_mode"},
		ids(t, plan.Steps))

	for _, s := range plan.Steps {
		assert.Equal(t, migration.AddColumn, s.Kind)
		assert.True(t, s.Transactional)
		assert.Len(t, s.Covers, 1)
	}
}

func TestBuild_tablesBeforeColumns(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()
	present := without(allPresent(cat), "column:channel.cat", "table:post", "table:role_membership")

	plan, err := migration.Build(cat, introspect.NewObserved(present...), dialect(t, database.SQLite))
	require.NoError(t, err)

	assert.Equal(t, []string{"table:role_membership", "table:post", "column:channel.cat"}, ids(t, plan.Steps))
}

func TestBuild_createTableCoversColumnsAndIndexes(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()
	present := without(allPresent(cat), "table:rtc_signal")

	plan, err := migration.Build(cat, introspect.NewObserved(present...), dialect(t, database.Postgres))
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)

	step := plan.Steps[0]
	assert.Equal(t, "create table rtc_signal", step.Name)
	assert.True(t, step.Transactional)
	require.Len(t, step.Statements, 3)
	assert.Contains(t, step.Statements[1], `CREATE INDEX "ix_rtc_signal_room"`)
	assert.NotContains(t, step.Statements[1], "CONCURRENTLY")

	var covered []string
	for _, it := range step.Covers {
		covered = append(covered, it.ID())
	}

	assert.Contains(t, covered, "column:rtc_signal.payload")
	assert.Contains(t, covered, "index:ix_rtc_signal_created_at")
}

func TestBuild_missingIndexOnExistingTable(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()
	present := without(allPresent(cat), "index:ix_rtc_participant_last_seen")

	tests := []struct {
		engine         database.Engine
		wantConcurrent bool
	}{
		{engine: database.Postgres, wantConcurrent: true},
		{engine: database.SQLite, wantConcurrent: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.engine), func(t *testing.T) {
			t.Parallel()

			plan, err := migration.Build(cat, introspect.NewObserved(present...), dialect(t, tt.engine))
			require.NoError(t, err)
			require.Len(t, plan.Steps, 1)

			step := plan.Steps[0]
			assert.Equal(t, migration.CreateIndex, step.Kind)
			create := step.Statements[len(step.Statements)-1]
			assert.True(t, strings.HasPrefix(create, "CREATE INDEX"))
			assert.Equal(t, tt.wantConcurrent, strings.Contains(create, "CONCURRENTLY"))
			assert.Equal(t, tt.wantConcurrent, len(step.Statements) == 2)
			assert.Equal(t, !tt.wantConcurrent, step.Transactional)
		})
	}
}

func TestBuild_isDeterministic(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()
	obs := introspect.NewObserved("table:user", "column:user.id")

	a, err := migration.Build(cat, obs, dialect(t, database.SQLite))
	require.NoError(t, err)

	b, err := migration.Build(cat, obs, dialect(t, database.SQLite))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
