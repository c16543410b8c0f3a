package executor

import (
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/migration"
)

// Outcome is the typed result of one step.
type Outcome int

// Step outcomes.
const (
	// Applied means the step's statements ran and committed.
	Applied Outcome = iota + 1
	// AlreadyPresent means the step failed but its target exists, so the
	// database is already in the desired state.
	AlreadyPresent
	// Failed means the step failed and its target is still absent.
	Failed
	// DryRun means the step was planned but not executed.
	DryRun
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyPresent:
		return "already present"
	case Failed:
		return "failed"
	case DryRun:
		return "dry run"
	default:
		return "unknown"
	}
}

// StepResult is the outcome of a single step.
type StepResult struct {
	Step     migration.Step
	Outcome  Outcome
	Reason   string // set for Failed
	Duration time.Duration
}

// Report summarizes an executor run.
type Report struct {
	Results []StepResult
}

func (r *Report) count(o Outcome) int {
	n := 0

	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}

	return n
}

// Attempted counts steps that were executed, excluding dry runs.
func (r *Report) Attempted() int {
	return len(r.Results) - r.count(DryRun)
}

// Applied counts steps that ran and committed.
func (r *Report) Applied() int { return r.count(Applied) }

// AlreadyPresent counts steps whose target already existed.
func (r *Report) AlreadyPresent() int { return r.count(AlreadyPresent) }

// Failed returns the failed steps in execution order.
func (r *Report) Failed() []StepResult {
	var failed []StepResult

	for _, res := range r.Results {
		if res.Outcome == Failed {
			failed = append(failed, res)
		}
	}

	return failed
}

// Partial reports whether at least one step failed.
func (r *Report) Partial() bool {
	return r.count(Failed) > 0
}
