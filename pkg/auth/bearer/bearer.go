// Package bearer provides the token voter: it grants a protected request
// when the Authorization header carries exactly one token that is
// currently held by a logged-in user.
package bearer

import (
	"context"

	"github.com/ayhamallaham/testapp/pkg/auth"
	"github.com/ayhamallaham/testapp/pkg/debug"
)

// TokenValidator reports whether a token is currently active.
type TokenValidator interface {
	IsTokenValid(ctx context.Context, token string) (bool, error)
}

// Voter checks bearer tokens against a TokenValidator.
type Voter struct {
	validator TokenValidator
}

// New creates a token voter backed by validator.
func New(validator TokenValidator) *Voter {
	return &Voter{validator: validator}
}

// Vote returns Grant for an active token and Deny otherwise. It never
// abstains: a protected request without a usable token is always denied.
func (v *Voter) Vote(ctx context.Context, req *auth.Request, _ *auth.Identity) auth.Vote {
	if v == nil || v.validator == nil {
		return auth.Deny
	}

	tok, err := auth.BearerToken(req.Authorization)
	if err != nil {
		debug.Log("auth", "bearer token rejected", "path", req.Path, "error", err)
		return auth.Deny
	}

	ok, err := v.validator.IsTokenValid(ctx, tok)
	if err != nil {
		debug.Log("auth", "token validation failed", "path", req.Path, "error", err)
		return auth.Deny
	}
	if !ok {
		debug.Log("auth", "token not active", "path", req.Path)
		return auth.Deny
	}
	return auth.Grant
}
