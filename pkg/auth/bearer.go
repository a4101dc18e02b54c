package auth

import (
	"errors"
	"strings"
)

// Errors returned by BearerToken. They are used for logging only.
var (
	ErrNoCredentials        = errors.New("no authorization header")
	ErrAmbiguousCredentials = errors.New("multiple authorization headers")
	ErrEmptyCredentials     = errors.New("empty bearer token")
)

const bearerPrefix = "bearer "

// BearerToken extracts the token from the Authorization header values.
// Exactly one value must be present. A case-insensitive "Bearer " scheme
// prefix is stripped; a bare token without a scheme is accepted as is.
func BearerToken(values []string) (string, error) {
	switch len(values) {
	case 0:
		return "", ErrNoCredentials
	case 1:
	default:
		return "", ErrAmbiguousCredentials
	}

	tok := strings.TrimSpace(values[0])
	if len(tok) >= len(bearerPrefix) && strings.EqualFold(tok[:len(bearerPrefix)], bearerPrefix) {
		tok = strings.TrimSpace(tok[len(bearerPrefix):])
	}
	if tok == "" || strings.EqualFold(tok, "bearer") {
		return "", ErrEmptyCredentials
	}
	return tok, nil
}
