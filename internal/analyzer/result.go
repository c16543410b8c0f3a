package analyzer

import "github.com/davebowl/Canna-spot-mobile/internal/migration"

// Finding is one lock hazard in a plan step's DDL.
type Finding struct {
	Rule       string
	Severity   Severity
	Table      string
	Statement  string // truncated for display
	Message    string
	Suggestion string
	LockType   string // e.g. "SHARE ROW EXCLUSIVE"
	StmtIndex  int    // position in Step.Statements
}

// AnalysisResult holds the findings for one step.
type AnalysisResult struct {
	Step        *migration.Step
	Findings    []Finding
	MaxSeverity Severity
}

// Blocks reports whether the step has a finding at or above threshold.
func (r *AnalysisResult) Blocks(threshold Severity) bool {
	return len(r.Findings) > 0 && r.MaxSeverity >= threshold
}

// TruncateSQL truncates a SQL string to maxLen characters for display.
// A maxLen too small to hold the ellipsis returns the input unchanged.
func TruncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen || maxLen < 4 { //nolint:mnd // room for "x..."
		return sql
	}

	return sql[:maxLen-3] + "..."
}
