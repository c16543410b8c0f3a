package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

func TestCannaSpot_isValid(t *testing.T) {
	t.Parallel()

	require.NoError(t, schema.CannaSpot().Validate())
}

func TestCannaSpot_referencedTablesComeFirst(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()
	ordered, err := schema.DependencyOrder(cat.Tables)
	require.NoError(t, err)

	pos := make(map[string]int, len(ordered))
	for i, tb := range ordered {
		pos[tb.Name] = i
	}

	for _, tb := range ordered {
		for _, r := range schema.References(tb) {
			if r == tb.Name {
				continue
			}

			assert.Less(t, pos[r], pos[tb.Name], "%s must follow %s", tb.Name, r)
		}
	}
}

func TestCannaSpot_declaresRelayIndexes(t *testing.T) {
	t.Parallel()

	cat := schema.CannaSpot()

	signal, ok := cat.Table("rtc_signal")
	require.True(t, ok)

	var got []string
	for _, ix := range signal.Indexes {
		got = append(got, ix.Name)
	}

	assert.Equal(t, []string{"ix_rtc_signal_room", "ix_rtc_signal_created_at"}, got)
}

func TestItem_ID(t *testing.T) {
	t.Parallel()

	col := schema.Column{Name: "avatar", Type: schema.TString(255)}

	tests := []struct {
		name     string
		item     schema.Item
		expected string
	}{
		{name: "table", item: schema.TableItem(schema.Table{Name: "user"}), expected: "table:user"},
		{name: "column", item: schema.ColumnItem("user", col), expected: "column:user.avatar"},
		{
			name:     "index",
			item:     schema.IndexItem(schema.Index{Name: "ix_rtc_signal_room", Table: "rtc_signal"}),
			expected: "index:ix_rtc_signal_room",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.item.ID())
		})
	}
}

func TestItem_Checksum_changesWithDefinition(t *testing.T) {
	t.Parallel()

	a := schema.ColumnItem("user", schema.Column{Name: "status", Type: schema.TString(20)})
	b := schema.ColumnItem("user", schema.Column{Name: "status", Type: schema.TString(20), Default: schema.Literal("online")})

	assert.Len(t, a.Checksum(), 64)
	assert.Equal(t, a.Checksum(), a.Checksum())
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestCatalog_Items_tablePrecedesItsColumns(t *testing.T) {
	t.Parallel()

	items := schema.CannaSpot().Items()
	require.NotEmpty(t, items)

	assert.Equal(t, "table:site_setting", items[0].ID())
	assert.Equal(t, "column:site_setting.id", items[1].ID())

	seen := make(map[string]bool)
	for _, it := range items {
		if it.Kind != schema.KindTable {
			assert.True(t, seen[it.Table], "%s listed before its table", it.ID())
		}

		seen[it.Table] = true
	}
}

func TestCatalog_Validate(t *testing.T) {
	t.Parallel()

	id := schema.Column{Name: "id", Type: schema.TInteger, PrimaryKey: true}

	tests := []struct {
		name    string
		catalog schema.Catalog
		wantErr string
	}{
		{
			name: "duplicate table",
			catalog: schema.Catalog{Tables: []schema.Table{
				{Name: "a", Columns: []schema.Column{id}},
				{Name: "a", Columns: []schema.Column{id}},
			}},
			wantErr: "duplicate table",
		},
		{
			name:    "missing primary key",
			catalog: schema.Catalog{Tables: []schema.Table{{Name: "a", Columns: []schema.Column{{Name: "x", Type: schema.TText}}}}},
			wantErr: "0 primary keys",
		},
		{
			name: "unknown reference",
			catalog: schema.Catalog{Tables: []schema.Table{
				{Name: "a", Columns: []schema.Column{id, {Name: "b_id", Type: schema.TInteger, References: "b"}}},
			}},
			wantErr: "unknown table",
		},
		{
			name: "index on unknown column",
			catalog: schema.Catalog{Tables: []schema.Table{{
				Name:    "a",
				Columns: []schema.Column{id},
				Indexes: []schema.Index{{Name: "ix_a_x", Table: "a", Columns: []string{"x"}}},
			}}},
			wantErr: "unknown column",
		},
		{
			name:    "string without length",
			catalog: schema.Catalog{Tables: []schema.Table{{Name: "a", Columns: []schema.Column{id, {Name: "s", Type: schema.ColumnType{Kind: schema.String}}}}}},
			wantErr: "needs a length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.catalog.Validate()

			require.ErrorIs(t, err, schema.ErrInvalidCatalog)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCatalog_Validate_cycle(t *testing.T) {
	t.Parallel()

	id := schema.Column{Name: "id", Type: schema.TInteger, PrimaryKey: true}
	cat := schema.Catalog{Tables: []schema.Table{
		{Name: "a", Columns: []schema.Column{id, {Name: "b_id", Type: schema.TInteger, References: "b"}}},
		{Name: "b", Columns: []schema.Column{id, {Name: "a_id", Type: schema.TInteger, References: "a"}}},
	}}

	require.ErrorIs(t, cat.Validate(), schema.ErrDependencyCycle)
}
