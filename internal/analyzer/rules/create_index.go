package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
)

// CreateIndexRule flags a plain CREATE INDEX on a table that already holds
// data. The planner emits CONCURRENTLY for those on Postgres, so a hit means
// the step was built by hand or for another dialect.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index-not-concurrent" }

// Check examines a statement for non-concurrent CREATE INDEX. Indexes built
// in the same step that creates their table are ignored.
func (r *CreateIndexRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_IndexStmt)
	if !ok {
		return nil
	}

	idx := node.IndexStmt
	table := analyzer.TableName(idx.Relation)

	if idx.Concurrent || ctx.CreatedTables[table] {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Table:      table,
		Message:    "CREATE INDEX " + idx.Idxname + " without CONCURRENTLY blocks writes to " + table,
		Suggestion: "Build " + idx.Idxname + " with CREATE INDEX CONCURRENTLY in a non-transactional step",
		LockType:   "SHARE",
		StmtIndex:  ctx.StmtIndex,
	}}
}
