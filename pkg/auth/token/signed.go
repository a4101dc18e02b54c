package token

import (
	"errors"
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted by NewSigned.
const MinSecretLength = 32

// Signed is an HS256 JWT codec. Tokens carry only the subject claim, with
// no issued-at or expiry, so a given identifier always maps to the same
// token and repeated logins stay idempotent.
type Signed struct {
	secret []byte
	parser *jwtlib.Parser
}

// NewSigned creates a signed codec with the given HMAC secret.
func NewSigned(secret []byte) (*Signed, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signed{
		secret: key,
		parser: jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()})),
	}, nil
}

// Encode signs a token whose subject is id.
func (s *Signed) Encode(id string) (string, error) {
	if !validIdentifier(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{Subject: id})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and returns the subject.
func (s *Signed) Decode(token string) (string, error) {
	claims := &jwtlib.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", errors.Join(ErrMalformedToken, err)
	}
	if !validIdentifier(claims.Subject) {
		return "", ErrMalformedToken
	}
	return claims.Subject, nil
}
