package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
	"github.com/davebowl/Canna-spot-mobile/internal/executor"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/migration"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	return nil
}

type findingView struct {
	Step       string `json:"step"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Table      string `json:"table"`
	Lock       string `json:"lock,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

func findingViews(results []analyzer.AnalysisResult) []findingView {
	var out []findingView

	for _, r := range results {
		for _, f := range r.Findings {
			out = append(out, findingView{
				Step:       r.Step.Name,
				Rule:       f.Rule,
				Severity:   f.Severity.String(),
				Table:      f.Table,
				Lock:       f.LockType,
				Message:    f.Message,
				Suggestion: f.Suggestion,
			})
		}
	}

	return out
}

// printFindings prints lint findings grouped by step.
func printFindings(out io.Writer, results []analyzer.AnalysisResult) {
	totalFindings := 0

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n=== %s ===\n", r.Step.Name)

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)
			fmt.Fprintf(out, "    Table: %s\n", f.Table)
			fmt.Fprintf(out, "    Rule:  %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:   %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:   %s\n\n", f.Suggestion)
		}

		totalFindings += len(r.Findings)
	}

	if totalFindings > 0 {
		fmt.Fprintf(out, "Found %d finding(s) across %d step(s).\n", totalFindings, countStepsWithFindings(results))
	}
}

func countStepsWithFindings(results []analyzer.AnalysisResult) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}

type stepView struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	Statements []string `json:"statements"`
	Outcome    string   `json:"outcome,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	DurationMs int64    `json:"duration_ms,omitempty"`
}

func planSteps(p *migration.Plan) []stepView {
	views := make([]stepView, 0, len(p.Steps))

	for _, s := range p.Steps {
		views = append(views, stepView{ID: s.ID, Kind: string(s.Kind), Name: s.Name, Statements: s.Statements})
	}

	return views
}

func reportSteps(r *executor.Report) []stepView {
	if r == nil {
		return nil
	}

	views := make([]stepView, 0, len(r.Results))

	for _, res := range r.Results {
		views = append(views, stepView{
			ID:         res.Step.ID,
			Kind:       string(res.Step.Kind),
			Name:       res.Step.Name,
			Statements: res.Step.Statements,
			Outcome:    res.Outcome.String(),
			Reason:     res.Reason,
			DurationMs: res.Duration.Milliseconds(),
		})
	}

	return views
}

// printDrift warns about columns the reconciler will not relax.
func printDrift(out io.Writer, drift []introspect.Drift) {
	if len(drift) == 0 {
		return
	}

	fmt.Fprintf(out, "\nWarning: %d column(s) differ in nullability and need a manual rebuild:\n", len(drift))

	for _, d := range drift {
		fmt.Fprintf(out, "  %s\n", d)
	}
}
