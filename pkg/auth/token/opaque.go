package token

import (
	"encoding/base64"
	"fmt"
)

// Opaque is the unsigned codec. The token is the padded URL-safe base64
// form of the identifier text.
type Opaque struct{}

// NewOpaque returns the unsigned codec.
func NewOpaque() Opaque {
	return Opaque{}
}

// Encode returns the base64 form of id.
func (Opaque) Encode(id string) (string, error) {
	if !validIdentifier(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return base64.URLEncoding.EncodeToString([]byte(id)), nil
}

// Decode reverses Encode.
func (Opaque) Decode(token string) (string, error) {
	raw, err := base64.URLEncoding.Strict().DecodeString(token)
	if err != nil {
		return "", ErrMalformedToken
	}
	id := string(raw)
	if !validIdentifier(id) {
		return "", ErrMalformedToken
	}
	return id, nil
}
