package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// Dialect renders the engine-neutral schema to DDL and supplies the catalog
// queries used to observe a live database. Queries are written with ?
// placeholders and passed through Rebind before use.
type Dialect interface {
	Engine() Engine
	Quote(ident string) string
	Rebind(query string) string

	ColumnType(t schema.ColumnType) string
	CreateTable(t schema.Table, ifNotExists bool) string
	// AddColumn renders an ADD COLUMN that an engine accepts on a table
	// that already holds rows.
	AddColumn(table string, c schema.Column) string
	CreateIndex(ix schema.Index, ifNotExists, concurrently bool) string
	// DropInvalidIndex clears what a failed concurrent build leaves behind.
	// Empty when the engine never leaves one.
	DropInvalidIndex(name string) string
	SupportsConcurrentIndex() bool

	// Probe queries return a single count. TableExistsQuery takes the table
	// name, ColumnExistsQuery the table and column, IndexExistsQuery the index.
	TableExistsQuery() string
	ColumnExistsQuery() string
	IndexExistsQuery() string
	// NotNullColumnsQuery lists the NOT NULL column names of the given table.
	NotNullColumnsQuery() string

	// TimeoutStatements returns statements that bound lock waits and
	// statement runtime for the current transaction. Zero disables a bound.
	TimeoutStatements(lockTimeout, statementTimeout time.Duration) []string

	// TimeArg converts t to the value bound for a DATETIME column.
	TimeArg(t time.Time) any
}

// DialectFor returns the dialect of the given engine.
func DialectFor(e Engine) (Dialect, error) {
	switch e {
	case SQLite:
		return sqliteDialect{}, nil
	case Postgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, e)
	}
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// renderDefault returns the DEFAULT expression, or "" for none. Booleans are
// rendered by the caller-supplied literals.
func renderDefault(d schema.Default, trueLit, falseLit string) string {
	switch d.Kind {
	case schema.NowDefault:
		return "CURRENT_TIMESTAMP"
	case schema.LiteralDefault:
		switch v := d.Value.(type) {
		case bool:
			if v {
				return trueLit
			}

			return falseLit
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case string:
			return quoteString(v)
		default:
			return quoteString(fmt.Sprint(v))
		}
	default:
		return ""
	}
}

// columnDef renders everything after the column name for CREATE TABLE.
func columnDef(d Dialect, c schema.Column, trueLit, falseLit string) string {
	parts := []string{d.ColumnType(c.Type)}

	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}

	if c.Unique {
		parts = append(parts, "UNIQUE")
	}

	if def := renderDefault(c.Default, trueLit, falseLit); def != "" {
		parts = append(parts, "DEFAULT "+def)
	}

	if c.References != "" {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)", d.Quote(c.References), d.Quote("id")))
	}

	return strings.Join(parts, " ")
}

func createTable(d Dialect, t schema.Table, ifNotExists bool, pkDef, trueLit, falseLit string) string {
	defs := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		if c.PrimaryKey {
			defs = append(defs, d.Quote(c.Name)+" "+pkDef)

			continue
		}

		defs = append(defs, d.Quote(c.Name)+" "+columnDef(d, c, trueLit, falseLit))
	}

	guard := ""
	if ifNotExists {
		guard = "IF NOT EXISTS "
	}

	return fmt.Sprintf("CREATE TABLE %s%s (\n    %s\n)", guard, d.Quote(t.Name), strings.Join(defs, ",\n    "))
}

// addColumn drops the constraints an engine cannot add to a populated
// table: NOT NULL without a default, UNIQUE, and the foreign key clause.
func addColumn(d Dialect, table string, c schema.Column, keepDefault func(schema.Default) bool, trueLit, falseLit string) string {
	c.Unique = false
	c.References = ""
	c.PrimaryKey = false

	if !keepDefault(c.Default) {
		c.Default = schema.Default{}
	}

	if !c.Default.IsSet() {
		c.NotNull = false
	}

	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		d.Quote(table), d.Quote(c.Name), columnDef(d, c, trueLit, falseLit))
}

func createIndex(d Dialect, ix schema.Index, ifNotExists, concurrently bool) string {
	var b strings.Builder

	b.WriteString("CREATE ")

	if ix.Unique {
		b.WriteString("UNIQUE ")
	}

	b.WriteString("INDEX ")

	if concurrently {
		b.WriteString("CONCURRENTLY ")
	}

	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}

	cols := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		cols[i] = d.Quote(c)
	}

	fmt.Fprintf(&b, "%s ON %s (%s)", d.Quote(ix.Name), d.Quote(ix.Table), strings.Join(cols, ", "))

	return b.String()
}
