// Package analyzer lints the Postgres DDL of a migration plan for statements
// that take heavy locks or rewrite tables while the application is live.
package analyzer

import (
	"fmt"

	"github.com/davebowl/Canna-spot-mobile/internal/migration"
)

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against the statements of plan steps.
type Analyzer struct {
	registry  *Registry
	parseFn   func(string) (*ParseResult, error)
	pgVersion int
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry:  NewRegistry(),
		parseFn:   Parse,
		pgVersion: 14, //nolint:mnd // default PostgreSQL version
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithPGVersion sets the target PostgreSQL version.
func WithPGVersion(v int) Option {
	return func(a *Analyzer) { a.pgVersion = v }
}

// WithParser overrides the SQL parser function (useful for testing).
func WithParser(fn func(string) (*ParseResult, error)) Option {
	return func(a *Analyzer) { a.parseFn = fn }
}

// Analyze parses and analyzes a single step, returning all findings.
func (a *Analyzer) Analyze(s *migration.Step) (*AnalysisResult, error) {
	sql := s.SQL()

	result, err := a.parseFn(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing step %s: %w", s.Name, err)
	}

	if result.SQL == "" {
		result.SQL = sql
	}

	created := createdTables(result.Stmts)

	var findings []Finding

	maxSeverity := Safe

	for i, stmt := range result.Stmts {
		ctx := &RuleContext{
			Step:            s,
			TargetPGVersion: a.pgVersion,
			StmtIndex:       i,
			CreatedTables:   created,
		}

		for _, rule := range a.registry.Rules() {
			fs := rule.Check(stmt, ctx)
			for j := range fs {
				if fs[j].Statement == "" {
					fs[j].Statement = TruncateSQL(result.Statement(i), 120) //nolint:mnd // display width
				}

				if fs[j].Severity > maxSeverity {
					maxSeverity = fs[j].Severity
				}
			}

			findings = append(findings, fs...)
		}
	}

	return &AnalysisResult{
		Step:        s,
		Findings:    findings,
		MaxSeverity: maxSeverity,
	}, nil
}

// AnalyzePlan analyzes every step and returns results for each.
func (a *Analyzer) AnalyzePlan(p *migration.Plan) ([]AnalysisResult, error) {
	if p.Empty() {
		return nil, nil
	}

	results := make([]AnalysisResult, 0, len(p.Steps))

	for i := range p.Steps {
		r, err := a.Analyze(&p.Steps[i])
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}

// Blocking returns the results with a finding at or above threshold.
func Blocking(results []AnalysisResult, threshold Severity) []AnalysisResult {
	var out []AnalysisResult

	for _, r := range results {
		if r.Blocks(threshold) {
			out = append(out, r)
		}
	}

	return out
}
