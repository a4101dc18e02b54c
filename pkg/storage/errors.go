package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user record does not exist, or when no
	// record holds a given token.
	ErrNotFound = errors.New("user not found")

	// ErrConflict is returned when a record with the given username already
	// exists.
	ErrConflict = errors.New("username already exists")
)
