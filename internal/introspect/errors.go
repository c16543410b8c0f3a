package introspect

import (
	"errors"
	"fmt"
)

// ErrIntrospection marks a failure to read the catalog. It is never returned
// for an object that simply does not exist.
var ErrIntrospection = errors.New("schema introspection failed")

// Error reports which probe failed.
type Error struct {
	Probe  string
	Object string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: probing %s %s: %v", ErrIntrospection, e.Probe, e.Object, e.Err)
}

// Unwrap exposes both the sentinel and the driver error.
func (e *Error) Unwrap() []error {
	return []error{ErrIntrospection, e.Err}
}
