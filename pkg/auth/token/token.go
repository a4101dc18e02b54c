// Package token converts user identifiers to bearer tokens and back.
//
// Two codecs are provided. [Opaque] is a reversible base64 encoding of the
// identifier: it obscures the identifier but does not authenticate it, so
// anyone who knows a user's identifier can compute that user's token.
// [Signed] binds the identifier with an HMAC so tokens cannot be forged
// without the server secret. Both are deterministic: the same identifier
// always yields the same token.
package token

import (
	"errors"

	"github.com/ayhamallaham/testapp/pkg/api"
)

var (
	// ErrMalformedToken is returned by Decode when the input was not
	// produced by the codec.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidIdentifier is returned by Encode for identifiers that are
	// not positive decimal integers.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Codec encodes identifiers into tokens and decodes them back.
// Decode(Encode(id)) must return id for every valid identifier.
type Codec interface {
	Encode(id string) (string, error)
	Decode(token string) (string, error)
}

func validIdentifier(id string) bool {
	_, ok := api.ParseIdentifier(id)
	return ok
}
