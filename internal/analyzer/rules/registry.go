package rules

import "github.com/davebowl/Canna-spot-mobile/internal/analyzer"

// NewDefaultRegistry returns a Registry with all built-in detection rules.
func NewDefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(NewCreateIndexRule())
	r.Register(NewAddColumnRule())
	r.Register(NewNotNullRule())
	r.Register(NewForeignKeyRule())

	return r
}
