package rtc

import "errors"

// ErrInvalidSignal is returned for a signal that fails validation.
var ErrInvalidSignal = errors.New("invalid signal")

// ErrUnknownUser is returned when the acting user has no account row.
var ErrUnknownUser = errors.New("unknown user")
