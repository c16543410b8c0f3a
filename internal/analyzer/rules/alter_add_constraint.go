package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
)

const foreignKeyLock = "SHARE ROW EXCLUSIVE"

// ForeignKeyRule reports the lock a foreign key takes on the table it
// references. Declaring one on a new table is brief; adding one to an
// existing table without NOT VALID holds the lock while every row is checked.
type ForeignKeyRule struct{}

// NewForeignKeyRule creates a new ForeignKeyRule.
func NewForeignKeyRule() *ForeignKeyRule { return &ForeignKeyRule{} }

// ID returns the rule identifier.
func (r *ForeignKeyRule) ID() string { return "foreign-key-lock" }

// Check examines CREATE TABLE and ALTER TABLE statements for foreign keys.
func (r *ForeignKeyRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	switch n := stmt.Stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return r.checkCreate(n.CreateStmt, ctx)
	case *pg_query.Node_AlterTableStmt:
		return r.checkAlter(n.AlterTableStmt, ctx)
	default:
		return nil
	}
}

func (r *ForeignKeyRule) checkCreate(cs *pg_query.CreateStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	seen := make(map[string]bool)

	var findings []analyzer.Finding

	for _, c := range foreignKeys(cs.TableElts) {
		ref := analyzer.TableName(c.Pktable)
		if seen[ref] || ref == analyzer.TableName(cs.Relation) {
			continue
		}

		seen[ref] = true

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.Low,
			Table:      ref,
			Message:    "creating " + analyzer.TableName(cs.Relation) + " briefly locks " + ref + " against writes",
			Suggestion: "Run during low traffic if " + ref + " is busy",
			LockType:   foreignKeyLock,
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

func (r *ForeignKeyRule) checkAlter(alt *pg_query.AlterTableStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var findings []analyzer.Finding

	for _, cmdNode := range alt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Def == nil {
			continue
		}

		var fks []*pg_query.Constraint

		switch cmd.AlterTableCmd.Subtype {
		case pg_query.AlterTableType_AT_AddConstraint:
			fks = foreignKeys([]*pg_query.Node{cmd.AlterTableCmd.Def})
		case pg_query.AlterTableType_AT_AddColumn:
			if def, ok := cmd.AlterTableCmd.Def.Node.(*pg_query.Node_ColumnDef); ok {
				fks = foreignKeys(def.ColumnDef.Constraints)
			}
		default:
			continue
		}

		for _, fk := range fks {
			if fk.SkipValidation {
				continue
			}

			findings = append(findings, analyzer.Finding{
				Rule:       r.ID(),
				Severity:   analyzer.High,
				Table:      analyzer.TableName(alt.Relation),
				Message:    "foreign key to " + analyzer.TableName(fk.Pktable) + " is validated while holding a lock",
				Suggestion: "Add with NOT VALID, then VALIDATE CONSTRAINT in a separate statement",
				LockType:   foreignKeyLock,
				StmtIndex:  ctx.StmtIndex,
			})
		}
	}

	return findings
}

// foreignKeys collects FOREIGN KEY constraints from column definitions,
// column constraint lists and table constraints.
func foreignKeys(nodes []*pg_query.Node) []*pg_query.Constraint {
	var out []*pg_query.Constraint

	for _, n := range nodes {
		switch v := n.Node.(type) {
		case *pg_query.Node_Constraint:
			if v.Constraint.Contype == pg_query.ConstrType_CONSTR_FOREIGN {
				out = append(out, v.Constraint)
			}
		case *pg_query.Node_ColumnDef:
			out = append(out, foreignKeys(v.ColumnDef.Constraints)...)
		}
	}

	return out
}
