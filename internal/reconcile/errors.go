package reconcile

import "errors"

// ErrPlanBlocked is returned when lint findings at or above the blocking
// threshold exist and the run was not forced.
var ErrPlanBlocked = errors.New("plan blocked by lint findings")
