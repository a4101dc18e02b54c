// Package memory provides an in-memory implementation of users.Store for
// testing and lightweight deployments. Records are lost when the process
// restarts.
package memory

import (
	"context"
	"crypto/subtle"
	"sort"
	"sync"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/storage"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// Store is an in-memory users.Store. Every method takes the mutex for the
// duration of a single-record operation, which gives the per-record
// atomicity the users service relies on.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]*api.User
	byUsername map[string]int64
	nextID     int64
}

// Ensure Store implements users.Store at compile time.
var _ users.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[int64]*api.User),
		byUsername: make(map[string]int64),
		nextID:     1,
	}
}

// CreateUser stores a copy of u and assigns u.ID.
func (s *Store) CreateUser(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return storage.ErrConflict
	}

	u.ID = s.nextID
	s.nextID++

	stored := *u
	s.users[u.ID] = &stored
	s.byUsername[u.Username] = u.ID
	return nil
}

// GetUser returns a copy of the user with the given ID.
func (s *Store) GetUser(_ context.Context, id int64) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(u), nil
}

// GetUserByUsername returns a copy of the user with the given username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(s.users[id]), nil
}

// GetUserByToken returns a copy of the user currently holding token.
// Candidates are compared in constant time.
func (s *Store) GetUserByToken(_ context.Context, token string) (*api.User, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.findByToken(token); u != nil {
		return clone(u), nil
	}
	return nil, storage.ErrNotFound
}

// ListUsers returns copies of all users ordered by ID.
func (s *Store) ListUsers(_ context.Context) ([]*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateProfile writes the email and password hash of u.
func (s *Store) UpdateProfile(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Email = u.Email
	stored.PasswordHash = u.PasswordHash
	return nil
}

// SetToken overwrites the token of the user with the given ID.
func (s *Store) SetToken(_ context.Context, id int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Token = token
	return nil
}

// ClearToken removes token from the user holding it.
func (s *Store) ClearToken(_ context.Context, token string) error {
	if token == "" {
		return storage.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByToken(token)
	if u == nil {
		return storage.ErrNotFound
	}
	u.Token = ""
	return nil
}

// DeleteUser removes the user with the given ID.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.byUsername, u.Username)
	delete(s.users, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// findByToken scans every record so the time taken does not depend on
// where the match is. Must be called with s.mu held.
func (s *Store) findByToken(token string) *api.User {
	var found *api.User
	want := []byte(token)
	for _, u := range s.users {
		if u.Token == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(u.Token), want) == 1 {
			found = u
		}
	}
	return found
}

func clone(u *api.User) *api.User {
	c := *u
	return &c
}
