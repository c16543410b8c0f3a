package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Column is one expected column of a table.
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	NotNull    bool
	Unique     bool
	Default    Default
	// References names the table whose primary key this column points at.
	References string
}

// Index is a secondary index on a table.
type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// Table is an expected table with its columns in declaration order.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
}

// PrimaryKey returns the primary key column. Validate guarantees exactly one.
func (t Table) PrimaryKey() Column {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c
		}
	}

	return Column{}
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

// Catalog is the complete expected schema, tables in declaration order.
type Catalog struct {
	Version string
	Tables  []Table
}

// Table looks up a table by name.
func (c *Catalog) Table(name string) (Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}

	return Table{}, false
}

// ItemKind classifies ledger items.
type ItemKind string

// Item kinds.
const (
	KindTable  ItemKind = "table"
	KindColumn ItemKind = "column"
	KindIndex  ItemKind = "index"
)

// Item is one independently observable piece of the expected schema.
type Item struct {
	Kind   ItemKind
	Table  string
	Column Column
	Index  Index
}

// TableItem builds the item for a table, keyed by its primary key.
func TableItem(t Table) Item { return Item{Kind: KindTable, Table: t.Name, Column: t.PrimaryKey()} }

// ColumnItem builds a column item.
func ColumnItem(table string, c Column) Item { return Item{Kind: KindColumn, Table: table, Column: c} }

// IndexItem builds an index item.
func IndexItem(ix Index) Item { return Item{Kind: KindIndex, Table: ix.Table, Index: ix} }

// ID returns the stable ledger key, e.g. "column:user.avatar".
func (i Item) ID() string {
	switch i.Kind {
	case KindTable:
		return "table:" + i.Table
	case KindColumn:
		return "column:" + i.Table + "." + i.Column.Name
	case KindIndex:
		return "index:" + i.Index.Name
	default:
		return string(i.Kind) + ":" + i.Table
	}
}

// Definition returns the canonical text form of the item, used for checksums.
func (i Item) Definition() string {
	switch i.Kind {
	case KindTable:
		return fmt.Sprintf("table %s pk %s", i.Table, i.Column.Name)
	case KindColumn:
		return columnDefinition(i.Table, i.Column)
	case KindIndex:
		return fmt.Sprintf("index %s on %s(%s) unique=%t",
			i.Index.Name, i.Index.Table, strings.Join(i.Index.Columns, ","), i.Index.Unique)
	default:
		return ""
	}
}

// Checksum returns the SHA-256 hex digest of Definition.
func (i Item) Checksum() string {
	h := sha256.Sum256([]byte(i.Definition()))

	return hex.EncodeToString(h[:])
}

func columnDefinition(table string, c Column) string {
	var b strings.Builder

	fmt.Fprintf(&b, "column %s.%s %s", table, c.Name, c.Type)

	if c.PrimaryKey {
		b.WriteString(" pk")
	}

	if c.NotNull {
		b.WriteString(" not-null")
	}

	if c.Unique {
		b.WriteString(" unique")
	}

	if c.Default.IsSet() {
		b.WriteString(" default=" + c.Default.String())
	}

	if c.References != "" {
		b.WriteString(" ref=" + c.References)
	}

	return b.String()
}

// Items lists every table, column and index of the catalog. Tables come in
// dependency order, each followed by its columns and then its indexes.
func (c *Catalog) Items() []Item {
	ordered, err := DependencyOrder(c.Tables)
	if err != nil {
		ordered = c.Tables
	}

	items := make([]Item, 0, len(ordered)*8)

	for _, t := range ordered {
		items = append(items, TableItem(t))

		for _, col := range t.Columns {
			items = append(items, ColumnItem(t.Name, col))
		}

		for _, ix := range t.Indexes {
			items = append(items, IndexItem(ix))
		}
	}

	return items
}

// Validate checks that the catalog is internally consistent: unique table,
// column and index names, exactly one primary key per table, foreign keys and
// index columns that resolve, and no foreign key cycles between tables.
func (c *Catalog) Validate() error {
	tables := make(map[string]Table, len(c.Tables))
	indexes := make(map[string]bool)

	for _, t := range c.Tables {
		if t.Name == "" {
			return fmt.Errorf("%w: table with empty name", ErrInvalidCatalog)
		}

		if _, dup := tables[t.Name]; dup {
			return fmt.Errorf("%w: duplicate table %q", ErrInvalidCatalog, t.Name)
		}

		tables[t.Name] = t
	}

	for _, t := range c.Tables {
		if err := validateTable(t, tables, indexes); err != nil {
			return err
		}
	}

	if _, err := DependencyOrder(c.Tables); err != nil {
		return err
	}

	return nil
}

func validateTable(t Table, tables map[string]Table, indexes map[string]bool) error {
	seen := make(map[string]bool, len(t.Columns))
	pks := 0

	for _, col := range t.Columns {
		if seen[col.Name] {
			return fmt.Errorf("%w: duplicate column %s.%s", ErrInvalidCatalog, t.Name, col.Name)
		}

		seen[col.Name] = true

		if col.PrimaryKey {
			pks++

			if col.Type.Kind != Integer {
				return fmt.Errorf("%w: primary key %s.%s must be integer", ErrInvalidCatalog, t.Name, col.Name)
			}
		}

		if col.References != "" {
			if _, ok := tables[col.References]; !ok {
				return fmt.Errorf("%w: %s.%s references unknown table %q",
					ErrInvalidCatalog, t.Name, col.Name, col.References)
			}
		}

		if col.Type.Kind == String && col.Type.Length <= 0 {
			return fmt.Errorf("%w: %s.%s string needs a length", ErrInvalidCatalog, t.Name, col.Name)
		}
	}

	if pks != 1 {
		return fmt.Errorf("%w: table %q has %d primary keys", ErrInvalidCatalog, t.Name, pks)
	}

	for _, ix := range t.Indexes {
		if indexes[ix.Name] {
			return fmt.Errorf("%w: duplicate index %q", ErrInvalidCatalog, ix.Name)
		}

		indexes[ix.Name] = true

		if ix.Table != t.Name {
			return fmt.Errorf("%w: index %q declared on %q but targets %q",
				ErrInvalidCatalog, ix.Name, t.Name, ix.Table)
		}

		if len(ix.Columns) == 0 {
			return fmt.Errorf("%w: index %q has no columns", ErrInvalidCatalog, ix.Name)
		}

		for _, name := range ix.Columns {
			if !seen[name] {
				return fmt.Errorf("%w: index %q uses unknown column %s.%s",
					ErrInvalidCatalog, ix.Name, t.Name, name)
			}
		}
	}

	return nil
}
