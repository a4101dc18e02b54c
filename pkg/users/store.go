package users

import (
	"context"

	"github.com/ayhamallaham/testapp/pkg/api"
)

// Store persists user records. Implementations must guarantee at most one
// record per username and return storage.ErrConflict on a duplicate, and
// storage.ErrNotFound for missing records.
//
// Every method is a single-record point operation; callers rely on the
// store's own per-record atomicity and take no locks of their own.
type Store interface {
	// CreateUser inserts u and sets u.ID to the assigned identifier.
	CreateUser(ctx context.Context, u *api.User) error

	// GetUser returns the user with the given ID.
	GetUser(ctx context.Context, id int64) (*api.User, error)

	// GetUserByUsername returns the user with the given username.
	GetUserByUsername(ctx context.Context, username string) (*api.User, error)

	// GetUserByToken returns the user whose current token equals token exactly.
	GetUserByToken(ctx context.Context, token string) (*api.User, error)

	// ListUsers returns all users ordered by ID.
	ListUsers(ctx context.Context) ([]*api.User, error)

	// UpdateProfile writes the email and password hash of u. It never
	// touches the token.
	UpdateProfile(ctx context.Context, u *api.User) error

	// SetToken overwrites the current token of the user with the given ID.
	SetToken(ctx context.Context, id int64, token string) error

	// ClearToken removes token from whichever user holds it. It returns
	// storage.ErrNotFound when no user holds token.
	ClearToken(ctx context.Context, token string) error

	// DeleteUser removes the user with the given ID.
	DeleteUser(ctx context.Context, id int64) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
