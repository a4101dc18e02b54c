// Package config provides unified configuration for the testapp server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Optional .env file, never overriding variables already set
//  4. Environment variable overrides (TESTAPP_ prefix)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import "time"

// Config holds all configuration for the testapp server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `yaml:"port"`                // default: 8080
	BasePath          string        `yaml:"base_path"`           // default: "/api"
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // default: 10s
	ReadTimeout       time.Duration `yaml:"read_timeout"`        // default: 30s
	WriteTimeout      time.Duration `yaml:"write_timeout"`       // default: 30s
	IdleTimeout       time.Duration `yaml:"idle_timeout"`        // default: 120s
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // default: 15s
}

// StorageConfig holds user record storage settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
	Cache    CacheConfig    `yaml:"cache"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	DSNFile         string        `yaml:"dsn_file"` // _file variant for dsn
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	Migrate         bool          `yaml:"migrate"` // default: true
}

// CacheConfig holds token lookup cache settings.
type CacheConfig struct {
	Type  string        `yaml:"type"` // "none" or "redis", default: "none"
	TTL   time.Duration `yaml:"ttl"`  // default: 30s
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
}

// AuthConfig holds authentication and access-decision settings.
type AuthConfig struct {
	Token       TokenConfig     `yaml:"token"`
	Password    PasswordConfig  `yaml:"password"`
	PublicPaths []string        `yaml:"public_paths"` // default: auth.DefaultPublicPaths
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// TokenConfig selects the token codec.
//
// The "opaque" codec is a reversible base64 encoding of the user
// identifier. It is NOT a secret: anyone who knows a user's identifier can
// compute that user's token. Use "signed" with a secret of at least 32
// bytes to make tokens unforgeable.
type TokenConfig struct {
	Codec      string `yaml:"codec"` // "opaque" or "signed", default: "opaque"
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
}

// PasswordConfig selects the password hasher.
type PasswordConfig struct {
	Hasher     string `yaml:"hasher"`      // "bcrypt" or "argon2id", default: "bcrypt"
	BcryptCost int    `yaml:"bcrypt_cost"` // default: bcrypt.DefaultCost
}

// RateLimitConfig holds per-user rate limiting settings.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables limiting
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			BasePath:          "/api",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:        25,
				MinConns:        2,
				MaxConnLifetime: 5 * time.Minute,
				Migrate:         true,
			},
			Cache: CacheConfig{
				Type: "none",
				TTL:  30 * time.Second,
			},
		},
		Auth: AuthConfig{
			Token: TokenConfig{
				Codec: "opaque",
			},
			Password: PasswordConfig{
				Hasher:     "bcrypt",
				BcryptCost: 10,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
