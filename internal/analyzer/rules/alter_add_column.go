package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
)

const pgVersionSafeNonVolatileDefault = 11

// addedColumns yields every ADD COLUMN definition of an ALTER TABLE statement.
func addedColumns(stmt *pg_query.RawStmt) (*pg_query.RangeVar, []*pg_query.ColumnDef) {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil, nil
	}

	var defs []*pg_query.ColumnDef

	for _, cmdNode := range node.AlterTableStmt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != pg_query.AlterTableType_AT_AddColumn || cmd.AlterTableCmd.Def == nil {
			continue
		}

		if def, ok := cmd.AlterTableCmd.Def.Node.(*pg_query.Node_ColumnDef); ok {
			defs = append(defs, def.ColumnDef)
		}
	}

	return node.AlterTableStmt.Relation, defs
}

// AddColumnRule detects ADD COLUMN with a DEFAULT that forces a table rewrite.
type AddColumnRule struct{}

// NewAddColumnRule creates a new AddColumnRule.
func NewAddColumnRule() *AddColumnRule { return &AddColumnRule{} }

// ID returns the rule identifier.
func (r *AddColumnRule) ID() string { return "add-column-volatile-default" }

// Check examines a statement for ADD COLUMN with volatile DEFAULT.
func (r *AddColumnRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	relation, defs := addedColumns(stmt)

	var findings []analyzer.Finding

	for _, def := range defs {
		expr := extractDefaultExpr(def)
		if expr == nil {
			continue
		}

		if ctx.TargetPGVersion >= pgVersionSafeNonVolatileDefault && !isVolatileDefault(expr) {
			continue
		}

		msg := "ADD COLUMN " + def.Colname + " with volatile DEFAULT rewrites the entire table"
		if ctx.TargetPGVersion < pgVersionSafeNonVolatileDefault {
			msg = "ADD COLUMN " + def.Colname + " with DEFAULT rewrites the entire table on PG < 11"
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Table:      analyzer.TableName(relation),
			Message:    msg,
			Suggestion: "Add the column without DEFAULT, then backfill in batches",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

// NotNullRule detects ADD COLUMN ... NOT NULL without a DEFAULT, which fails
// on any table that already holds rows.
type NotNullRule struct{}

// NewNotNullRule creates a new NotNullRule.
func NewNotNullRule() *NotNullRule { return &NotNullRule{} }

// ID returns the rule identifier.
func (r *NotNullRule) ID() string { return "add-column-not-null-without-default" }

// Check examines a statement for NOT NULL columns added without a default.
func (r *NotNullRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	relation, defs := addedColumns(stmt)

	var findings []analyzer.Finding

	for _, def := range defs {
		if !hasConstraint(def, pg_query.ConstrType_CONSTR_NOTNULL) || extractDefaultExpr(def) != nil {
			continue
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.Critical,
			Table:      analyzer.TableName(relation),
			Message:    "ADD COLUMN " + def.Colname + " NOT NULL without DEFAULT fails when the table has rows",
			Suggestion: "Add the column nullable or with a constant DEFAULT",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

func hasConstraint(def *pg_query.ColumnDef, kind pg_query.ConstrType) bool {
	for _, c := range def.Constraints {
		if cn, ok := c.Node.(*pg_query.Node_Constraint); ok && cn.Constraint.Contype == kind {
			return true
		}
	}

	return false
}

// extractDefaultExpr finds the DEFAULT expression from a ColumnDef.
// In pg_query_go v6, DEFAULT is stored as a CONSTR_DEFAULT constraint
// in the Constraints list, with the expression in RawExpr.
func extractDefaultExpr(colDef *pg_query.ColumnDef) *pg_query.Node {
	for _, c := range colDef.Constraints {
		cn, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}

		if cn.Constraint.Contype == pg_query.ConstrType_CONSTR_DEFAULT {
			return cn.Constraint.RawExpr
		}
	}

	return nil
}

// isVolatileDefault determines whether a DEFAULT expression is volatile.
// Constants, casts of constants and CURRENT_TIMESTAMP style value functions
// are evaluated once; function calls are assumed volatile.
func isVolatileDefault(node *pg_query.Node) bool {
	if node == nil {
		return false
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_AConst, *pg_query.Node_SqlvalueFunction:
		return false
	case *pg_query.Node_TypeCast:
		if n.TypeCast.Arg != nil {
			return isVolatileDefault(n.TypeCast.Arg)
		}

		return true
	default:
		return true
	}
}
