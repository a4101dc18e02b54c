package config

import (
	"errors"
	"fmt"
	"strings"
)

// minTokenSecret mirrors token.MinSecretLength; config does not import the
// token package.
const minTokenSecret = 32

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path must start with \"/\", got %q", c.Server.BasePath))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	switch c.Storage.Cache.Type {
	case "none", "":
	case "redis":
		if c.Storage.Cache.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("storage.cache.redis.addr is required when storage.cache.type is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.cache.type must be \"none\" or \"redis\", got %q", c.Storage.Cache.Type))
	}
	if c.Storage.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("storage.cache.ttl must not be negative, got %v", c.Storage.Cache.TTL))
	}

	switch c.Auth.Token.Codec {
	case "opaque":
	case "signed":
		if len(c.Auth.Token.Secret) < minTokenSecret {
			errs = append(errs, fmt.Errorf("auth.token.secret must be at least %d bytes when auth.token.codec is \"signed\"", minTokenSecret))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.token.codec must be \"opaque\" or \"signed\", got %q", c.Auth.Token.Codec))
	}

	switch c.Auth.Password.Hasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("auth.password.hasher must be \"bcrypt\" or \"argon2id\", got %q", c.Auth.Password.Hasher))
	}

	for i, p := range c.Auth.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("auth.public_paths[%d] must start with \"/\", got %q", i, p))
		}
	}

	if c.Auth.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.requests_per_minute must not be negative, got %d", c.Auth.RateLimit.RequestsPerMinute))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
