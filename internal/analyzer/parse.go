package analyzer

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the statements of one step and the SQL they came from.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses Postgres DDL. Blank input yields zero statements.
func Parse(sql string) (*ParseResult, error) {
	if strings.TrimSpace(sql) == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{Stmts: tree.Stmts, SQL: sql}, nil
}

// createdTables returns the tables created by CREATE TABLE statements.
func createdTables(stmts []*pg_query.RawStmt) map[string]bool {
	created := make(map[string]bool)

	for _, s := range stmts {
		if n, ok := s.Stmt.Node.(*pg_query.Node_CreateStmt); ok {
			created[TableName(n.CreateStmt.Relation)] = true
		}
	}

	return created
}

// Statement returns the source text of statement i, or "" when i is out of
// range.
func (r *ParseResult) Statement(i int) string {
	if i < 0 || i >= len(r.Stmts) {
		return ""
	}

	start := int(r.Stmts[i].StmtLocation)
	end := len(r.SQL)

	if i+1 < len(r.Stmts) {
		end = int(r.Stmts[i+1].StmtLocation)
	}

	if start >= end || end > len(r.SQL) {
		return ""
	}

	return strings.TrimSpace(r.SQL[start:end])
}

// TableName renders a relation as [schema.]name.
func TableName(rv *pg_query.RangeVar) string {
	if rv == nil {
		return "<unknown>"
	}

	if rv.Schemaname != "" {
		return rv.Schemaname + "." + rv.Relname
	}

	return rv.Relname
}
