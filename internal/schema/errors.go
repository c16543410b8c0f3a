package schema

import "errors"

// ErrInvalidCatalog indicates the expected schema itself is inconsistent.
var ErrInvalidCatalog = errors.New("invalid schema catalog")

// ErrDependencyCycle indicates tables reference each other in a cycle.
var ErrDependencyCycle = errors.New("foreign key dependency cycle")
