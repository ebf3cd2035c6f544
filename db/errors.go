package db

import "github.com/pkg/errors"

// Sentinel errors returned by the data access functions. Callers should use
// errors.Is to check for them because they may be wrapped with context.
var (
	// ErrUserNotFound indicates that a user ID or email address did not resolve
	// to an existing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrProductNotFound indicates that a product ID did not resolve to an
	// existing product listing.
	ErrProductNotFound = errors.New("product not found")

	// ErrNotificationNotFound indicates that a notification ID did not resolve
	// to a notification belonging to the given user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidIndex indicates that a positional notification removal referred
	// to a position outside the current bounds of the user's notification list.
	ErrInvalidIndex = errors.New("invalid notification index")

	// ErrDuplicateUser indicates that a registration attempted to reuse a
	// username or email address.
	ErrDuplicateUser = errors.New("username or email address already in use")
)
