package bootstrap

import "errors"

// ErrCreateFailed is returned when the create-all transaction fails. No
// table from the run survives it.
var ErrCreateFailed = errors.New("creating tables failed")
