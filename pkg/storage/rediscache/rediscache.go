// Package rediscache provides a users.Store decorator that caches
// token lookups in Redis.
//
// Every protected request performs a GetUserByToken, so that lookup is the
// hot path. The decorator keeps the matching record in Redis under a key
// derived from a SHA-256 of the token, and drops the entry on every write
// that could change what the token resolves to: SetToken, ClearToken,
// UpdateProfile and DeleteUser. Entries also expire after a TTL, which
// bounds how long a lookup racing a logout can keep a stale entry alive.
//
// Redis failures on the read path fall through to the wrapped store.
// Failures to invalidate before a write abort the write.
package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/debug"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 30 * time.Second

const keyPrefix = "testapp:token:"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Store wraps a users.Store with a Redis token cache.
type Store struct {
	users.Store

	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure Store implements users.Store at compile time.
var _ users.Store = (*Store)(nil)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// New wraps inner with a cache backed by rdb.
func New(inner users.Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Store: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// cachedUser is the cached form of a record. The password hash is not
// cached.
type cachedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetUserByToken serves the lookup from Redis when possible. Cached
// records carry no password hash.
func (s *Store) GetUserByToken(ctx context.Context, token string) (*api.User, error) {
	if token == "" {
		return s.Store.GetUserByToken(ctx, token)
	}
	key := cacheKey(token)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedUser
		if err := json.Unmarshal(data, &c); err == nil {
			debug.Log("storage", "token cache hit", "id", c.ID)
			return &api.User{ID: c.ID, Username: c.Username, Email: c.Email, Token: token}, nil
		}
		s.logger.Error("failed to unmarshal cached user", "error", err)
		s.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		s.logger.Error("failed to query token cache", "error", err)
	}

	u, err := s.Store.GetUserByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(cachedUser{ID: u.ID, Username: u.Username, Email: u.Email})
	if err == nil {
		if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Error("failed to populate token cache", "id", u.ID, "error", err)
		}
	}
	return u, nil
}

// SetToken drops the cache entry of the user's previous token before
// writing the new one.
func (s *Store) SetToken(ctx context.Context, id int64, token string) error {
	if err := s.invalidateUser(ctx, id); err != nil {
		return err
	}
	return s.Store.SetToken(ctx, id, token)
}

// ClearToken drops the cache entry for token before and after clearing it.
func (s *Store) ClearToken(ctx context.Context, token string) error {
	if err := s.invalidate(ctx, token); err != nil {
		return err
	}
	if err := s.Store.ClearToken(ctx, token); err != nil {
		return err
	}
	if err := s.invalidate(ctx, token); err != nil {
		s.logger.Error("failed to invalidate token cache after logout", "error", err)
	}
	return nil
}

// UpdateProfile drops the cached record before writing.
func (s *Store) UpdateProfile(ctx context.Context, u *api.User) error {
	if err := s.invalidateUser(ctx, u.ID); err != nil {
		return err
	}
	return s.Store.UpdateProfile(ctx, u)
}

// DeleteUser drops the cached record before deleting.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if err := s.invalidateUser(ctx, id); err != nil {
		return err
	}
	return s.Store.DeleteUser(ctx, id)
}

// HealthCheck checks both Redis and the wrapped store.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return s.Store.HealthCheck(ctx)
}

// Close closes the Redis client and the wrapped store.
func (s *Store) Close() error {
	return errors.Join(s.rdb.Close(), s.Store.Close())
}

func (s *Store) invalidateUser(ctx context.Context, id int64) error {
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		// Let the wrapped store report the missing record.
		return nil
	}
	if u.Token == "" {
		return nil
	}
	return s.invalidate(ctx, u.Token)
}

func (s *Store) invalidate(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, cacheKey(token)).Err(); err != nil {
		return fmt.Errorf("invalidating token cache: %w", err)
	}
	return nil
}
