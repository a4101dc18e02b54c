// Package postgres provides a PostgreSQL implementation of users.Store.
// It uses pgx/v5 for connection pooling and goose for schema migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/debug"
	"github.com/ayhamallaham/testapp/pkg/storage"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed users.Store. Every method issues a single
// statement, so per-record atomicity comes from PostgreSQL itself.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure Store implements users.Store at compile time.
var _ users.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, logger: logger}

	if cfg.MigrateOnStart {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const userColumns = "id, username, password_hash, COALESCE(email, ''), COALESCE(token, '')"

// CreateUser inserts u and sets u.ID from the generated key.
func (s *Store) CreateUser(ctx context.Context, u *api.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO app_user (username, password_hash, email)
		VALUES ($1, $2, $3)
		RETURNING id
	`, u.Username, u.PasswordHash, nullString(u.Email)).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	debug.Log("storage", "user created", "id", u.ID)
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*api.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*api.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

// GetUserByToken returns the user whose token equals token exactly.
func (s *Store) GetUserByToken(ctx context.Context, token string) (*api.User, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}
	return s.getUser(ctx, "token = $1", token)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*api.User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM app_user WHERE "+where, arg)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]*api.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM app_user ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	out := []*api.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return out, nil
}

// UpdateProfile writes the email and password hash of u. The token column
// is not part of the statement.
func (s *Store) UpdateProfile(ctx context.Context, u *api.User) error {
	return s.exec(ctx, "updating user", `
		UPDATE app_user SET email = $1, password_hash = $2, updated_at = now()
		WHERE id = $3
	`, nullString(u.Email), u.PasswordHash, u.ID)
}

// SetToken overwrites the token of the user with the given ID.
func (s *Store) SetToken(ctx context.Context, id int64, token string) error {
	return s.exec(ctx, "setting token",
		"UPDATE app_user SET token = $1, updated_at = now() WHERE id = $2",
		token, id,
	)
}

// ClearToken removes token from whichever user holds it. The lookup and
// the write are one statement.
func (s *Store) ClearToken(ctx context.Context, token string) error {
	if token == "" {
		return storage.ErrNotFound
	}
	return s.exec(ctx, "clearing token",
		"UPDATE app_user SET token = NULL, updated_at = now() WHERE token = $1",
		token,
	)
}

// DeleteUser removes the user with the given ID.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.exec(ctx, "deleting user", "DELETE FROM app_user WHERE id = $1", id)
}

// exec runs a single-row write and maps zero affected rows to ErrNotFound.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanUser(row pgx.Row) (*api.User, error) {
	var u api.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Token); err != nil {
		return nil, err
	}
	return &u, nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
