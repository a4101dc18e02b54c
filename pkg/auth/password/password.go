// Package password hashes and verifies user passwords.
package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when a password exceeds what the
// algorithm can hash without truncation.
var ErrPasswordTooLong = errors.New("password too long")

// Hasher is a one-way password hash.
type Hasher interface {
	// Hash returns an encoded hash of password.
	Hash(password string) (string, error)

	// Compare reports whether password matches hash. A mismatch is
	// (false, nil); an error means the hash itself could not be read.
	Compare(hash, password string) (bool, error)
}

// New returns the hasher named by algorithm: "bcrypt" (the default when
// empty) or "argon2id". bcryptCost is ignored for argon2id; zero selects
// bcrypt.DefaultCost.
func New(algorithm string, bcryptCost int) (Hasher, error) {
	switch algorithm {
	case "", "bcrypt":
		return NewBcrypt(bcryptCost)
	case "argon2id":
		return NewArgon2id(nil), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", algorithm)
	}
}

// Bcrypt hashes with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher with the given cost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash implements Hasher.
func (b *Bcrypt) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Compare implements Hasher.
func (b *Bcrypt) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %w", err)
	}
}

// Argon2id hashes with github.com/alexedwards/argon2id.
type Argon2id struct {
	params *argon2id.Params
}

// NewArgon2id creates an argon2id hasher. Nil params selects
// argon2id.DefaultParams.
func NewArgon2id(params *argon2id.Params) *Argon2id {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &Argon2id{params: params}
}

// Hash implements Hasher.
func (a *Argon2id) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, a.params)
	if err != nil {
		return "", fmt.Errorf("argon2id: %w", err)
	}
	return hash, nil
}

// Compare implements Hasher.
func (a *Argon2id) Compare(hash, password string) (bool, error) {
	match, _, err := argon2id.CheckHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("argon2id: %w", err)
	}
	return match, nil
}
