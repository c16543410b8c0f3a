package analyzer

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/davebowl/Canna-spot-mobile/internal/migration"
)

// Rule inspects one parsed statement of a plan step for lock hazards.
type Rule interface {
	// ID is a unique kebab-case identifier, shown next to each finding.
	ID() string
	Check(stmt *pg_query.RawStmt, ctx *RuleContext) []Finding
}

// RuleContext describes where a statement sits in its step.
type RuleContext struct {
	Step            *migration.Step
	TargetPGVersion int
	StmtIndex       int
	// CreatedTables holds tables the same step creates. Locks on a table
	// nobody else can see yet are harmless.
	CreatedTables map[string]bool
}

// Registry is an ordered rule set. Rules run in registration order.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule. A rule with an ID already present replaces the
// earlier one in place.
func (r *Registry) Register(rule Rule) {
	for i, have := range r.rules {
		if have.ID() == rule.ID() {
			r.rules[i] = rule

			return
		}
	}

	r.rules = append(r.rules, rule)
}

// Rules returns all registered rules.
func (r *Registry) Rules() []Rule {
	return r.rules
}
