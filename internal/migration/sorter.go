package migration

import "sort"

func phase(k Kind) int {
	switch k {
	case CreateTable:
		return 0
	case AddColumn:
		return 1
	default:
		return 2
	}
}

// Sort returns a new slice of steps ordered by phase: table creations, then
// column additions, then index creations. The sort is stable so dependency
// and declaration order survive within a phase.
func Sort(steps []Step) []Step {
	sorted := make([]Step, len(steps))
	copy(sorted, steps)

	sort.SliceStable(sorted, func(i, j int) bool {
		return phase(sorted[i].Kind) < phase(sorted[j].Kind)
	})

	return sorted
}
