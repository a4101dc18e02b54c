package transport

import (
	"context"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// UserService is implemented by *users.Service.
type UserService interface {
	// Register creates a new logged-out user.
	Register(ctx context.Context, req users.RegisterRequest) (*api.User, error)

	// Login verifies credentials and returns the user's token.
	Login(ctx context.Context, username, password string) (string, error)

	// Logout clears the given token from the user holding it.
	Logout(ctx context.Context, token string) error

	// IdentifierFromToken decodes a token without checking liveness.
	IdentifierFromToken(token string) (string, error)

	// Get returns one user.
	Get(ctx context.Context, id int64) (*api.User, error)

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*api.User, error)

	// UpdateProfile applies a partial profile update.
	UpdateProfile(ctx context.Context, id int64, req users.UpdateRequest) (*api.User, error)

	// Delete removes one user.
	Delete(ctx context.Context, id int64) error

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
}

// Ensure *users.Service implements UserService at compile time.
var _ UserService = (*users.Service)(nil)
