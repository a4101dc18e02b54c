package auth

import (
	"context"
	"errors"
)

// Vote is a single voter's opinion on a request.
type Vote int

const (
	// Abstain means the voter has no opinion on this request.
	Abstain Vote = iota

	// Grant means the voter allows the request. At least one Grant is
	// needed for the request to be allowed.
	Grant

	// Deny means the voter rejects the request. A single Deny vetoes all
	// grants.
	Deny
)

// String returns the lowercase vote name.
func (v Vote) String() string {
	switch v {
	case Grant:
		return "grant"
	case Deny:
		return "deny"
	case Abstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of an access decision.
type Verdict int

const (
	// VerdictDeny is the zero value, so an uninitialized verdict never allows.
	VerdictDeny Verdict = iota
	VerdictAllow
)

// String returns "allow" or "deny".
func (v Verdict) String() string {
	if v == VerdictAllow {
		return "allow"
	}
	return "deny"
}

// Allowed reports whether the verdict lets the request through.
func (v Verdict) Allowed() bool {
	return v == VerdictAllow
}

// Request is the part of an inbound request exposed to voters.
type Request struct {
	Method string
	Path   string

	// Authorization holds every value of the Authorization header, in order.
	Authorization []string

	RemoteAddr string
}

// Identity represents an authenticated caller.
type Identity struct {
	// Subject is the user identifier the bearer token decodes to.
	Subject string

	// Token is the bearer token presented with the request.
	Token string
}

// Voter casts a vote on a protected request. principal is the identity
// already established for the request, or nil when the caller is anonymous.
//
// Implementations must not return an error: any failure must be expressed
// as Deny.
type Voter interface {
	Vote(ctx context.Context, req *Request, principal *Identity) Vote
}

// VoterFunc adapts a function to the Voter interface.
type VoterFunc func(ctx context.Context, req *Request, principal *Identity) Vote

// Vote calls f.
func (f VoterFunc) Vote(ctx context.Context, req *Request, principal *Identity) Vote {
	return f(ctx, req, principal)
}

// Unanimous folds votes into a verdict: any Deny denies, otherwise the
// request is allowed only if at least one vote was Grant. No votes, or
// only abstentions, deny.
func Unanimous(votes ...Vote) Verdict {
	granted := false
	for _, v := range votes {
		switch v {
		case Deny:
			return VerdictDeny
		case Grant:
			granted = true
		case Abstain:
		default:
			// Unknown vote values are treated as dissent.
			return VerdictDeny
		}
	}
	if granted {
		return VerdictAllow
	}
	return VerdictDeny
}

// Sentinel errors.
var (
	ErrForbidden       = errors.New("access denied")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)
