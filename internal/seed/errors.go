package seed

import "errors"

// ErrSeedFailed wraps any failure while checking or inserting default rows.
var ErrSeedFailed = errors.New("seeding failed")
