package schema

import (
	"fmt"
	"sort"
	"strings"
)

// DependencyOrder returns a new slice of tables ordered so that every table
// comes after the tables its foreign keys reference. Among tables whose
// references are satisfied, input order is preserved. Self references are
// ignored. References to tables outside the input are treated as satisfied.
func DependencyOrder(tables []Table) ([]Table, error) {
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t.Name] = true
	}

	emitted := make(map[string]bool, len(tables))
	ordered := make([]Table, 0, len(tables))
	pending := make([]Table, len(tables))
	copy(pending, tables)

	for len(pending) > 0 {
		next := -1

		for i, t := range pending {
			if ready(t, present, emitted) {
				next = i

				break
			}
		}

		if next < 0 {
			return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, tableNames(pending))
		}

		emitted[pending[next].Name] = true
		ordered = append(ordered, pending[next])
		pending = append(pending[:next], pending[next+1:]...)
	}

	return ordered, nil
}

func ready(t Table, present, emitted map[string]bool) bool {
	for _, ref := range References(t) {
		if ref == t.Name || !present[ref] {
			continue
		}

		if !emitted[ref] {
			return false
		}
	}

	return true
}

// References returns the distinct tables referenced by t, sorted by name.
func References(t Table) []string {
	seen := make(map[string]bool)

	for _, c := range t.Columns {
		if c.References != "" {
			seen[c.References] = true
		}
	}

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}

	sort.Strings(refs)

	return refs
}

func tableNames(tables []Table) string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}

	return strings.Join(names, ", ")
}
