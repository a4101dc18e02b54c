// Package users implements registration, login, logout and token
// validation on top of a Store.
//
// Service is the only writer of a user's token. Login derives the token
// from the user's identifier with a token.Codec and stores it; logout
// clears it. Because the codec is deterministic, a user has at most one
// possible token, and logging in again while logged in rewrites the same
// value. No locks are taken: every state change is a single-record store
// write, and concurrent login/logout on one user is last-write-wins.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/auth/password"
	"github.com/ayhamallaham/testapp/pkg/auth/token"
	"github.com/ayhamallaham/testapp/pkg/observability"
	"github.com/ayhamallaham/testapp/pkg/storage"
)

// RegisterRequest carries the fields accepted at registration.
type RegisterRequest struct {
	Username string
	Password string
	Email    string
}

// UpdateRequest is a partial profile update. Nil fields are kept.
type UpdateRequest struct {
	Email    *string
	Password *string
}

// Service is the authentication service.
type Service struct {
	store  Store
	hasher password.Hasher
	codec  token.Codec
	logger *slog.Logger
}

// NewService creates a service. A nil logger selects slog.Default().
func NewService(store Store, hasher password.Hasher, codec token.Codec, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		hasher: hasher,
		codec:  codec,
		logger: logger,
	}
}

// Register creates a logged-out user. Nothing is written on failure.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*api.User, error) {
	if req.Username == "" || req.Password == "" {
		countOp("register", "missing_data")
		return nil, ErrMissingRequiredData
	}

	_, err := s.store.GetUserByUsername(ctx, req.Username)
	switch {
	case err == nil:
		countOp("register", "conflict")
		return nil, ErrUsernameAlreadyUsed
	case !errors.Is(err, storage.ErrNotFound):
		countOp("register", "error")
		return nil, fmt.Errorf("looking up username: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		countOp("register", "error")
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &api.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost a race with a concurrent registration.
			countOp("register", "conflict")
			return nil, ErrUsernameAlreadyUsed
		}
		countOp("register", "error")
		return nil, fmt.Errorf("creating user: %w", err)
	}

	countOp("register", "success")
	s.logger.Info("user registered", "id", u.ID)
	return u, nil
}

// Login checks the credentials and returns the user's token, storing it
// on the record. The token of an already logged-in user is rewritten with
// the same value.
func (s *Service) Login(ctx context.Context, username, pw string) (string, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		countOp("login", "unknown_user")
		return "", ErrUserDoesNotExist
	}
	if err != nil {
		countOp("login", "error")
		return "", fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.hasher.Compare(u.PasswordHash, pw)
	if err != nil {
		countOp("login", "error")
		return "", fmt.Errorf("comparing password: %w", err)
	}
	if !ok {
		countOp("login", "invalid_password")
		return "", ErrInvalidPassword
	}

	tok, err := s.codec.Encode(u.Identifier())
	if err != nil {
		countOp("login", "error")
		return "", fmt.Errorf("encoding token: %w", err)
	}

	if err := s.store.SetToken(ctx, u.ID, tok); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between lookup and write.
			countOp("login", "unknown_user")
			return "", ErrUserDoesNotExist
		}
		countOp("login", "error")
		return "", fmt.Errorf("storing token: %w", err)
	}

	countOp("login", "success")
	s.logger.Info("user logged in", "id", u.ID)
	return tok, nil
}

// Logout clears tok from the user holding it. The lookup and the clear
// are one store operation.
func (s *Service) Logout(ctx context.Context, tok string) error {
	if tok == "" {
		countOp("logout", "invalid_token")
		return ErrInvalidToken
	}

	err := s.store.ClearToken(ctx, tok)
	if errors.Is(err, storage.ErrNotFound) {
		countOp("logout", "invalid_token")
		return ErrInvalidToken
	}
	if err != nil {
		countOp("logout", "error")
		return fmt.Errorf("clearing token: %w", err)
	}

	countOp("logout", "success")
	s.logger.Info("user logged out")
	return nil
}

// IsTokenValid reports whether some user currently holds tok exactly.
// Store errors are returned so the caller can fail closed.
func (s *Service) IsTokenValid(ctx context.Context, tok string) (bool, error) {
	if tok == "" {
		return false, nil
	}
	_, err := s.store.GetUserByToken(ctx, tok)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up token: %w", err)
	}
	return true, nil
}

// IdentifierFromToken decodes tok without checking that it is active.
// Callers needing liveness must also call IsTokenValid.
func (s *Service) IdentifierFromToken(tok string) (string, error) {
	id, err := s.codec.Decode(tok)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, token.ErrMalformedToken)
	}
	return id, nil
}

// Get returns the user with the given ID.
func (s *Service) Get(ctx context.Context, id int64) (*api.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserDoesNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by ID.
func (s *Service) List(ctx context.Context) ([]*api.User, error) {
	list, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return list, nil
}

// UpdateProfile applies a partial update. It never writes the token.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req UpdateRequest) (*api.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, ErrMissingRequiredData
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := s.store.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserDoesNotExist
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// Delete removes the user with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserDoesNotExist
	}
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	s.logger.Info("user deleted", "id", id)
	return nil
}

// HealthCheck reports whether the store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func countOp(op, outcome string) {
	observability.AuthOperationsTotal.WithLabelValues(op, outcome).Inc()
}
