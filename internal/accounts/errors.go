package accounts

import "errors"

var (
	// ErrUserNotFound is returned when no user matches a username or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUser is returned for a new user missing a required field.
	ErrInvalidUser = errors.New("invalid user")
)
