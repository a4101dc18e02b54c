package users

import "errors"

// Errors returned by Service. Messages are user-visible.
var (
	ErrMissingRequiredData = errors.New("missing required data")
	ErrUsernameAlreadyUsed = errors.New("username already used")
	ErrUserDoesNotExist    = errors.New("user does not exist")
	ErrInvalidPassword     = errors.New("Incorrect password")
	ErrInvalidToken        = errors.New("Invalid token")
)
