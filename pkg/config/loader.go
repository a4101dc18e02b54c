package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TESTAPP_CONFIG env, ./config.yaml, /etc/testapp/config.yaml)
//  3. .env file (TESTAPP_ENV_FILE or ./.env), if present
//  4. TESTAPP_* environment variable overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TESTAPP_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/testapp/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("TESTAPP_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/testapp/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadDotEnv loads variables from the .env file into the process
// environment. Variables that are already set win. A missing file is not
// an error.
func loadDotEnv() error {
	path := os.Getenv("TESTAPP_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides maps TESTAPP_* environment variables to config fields.
// Malformed numeric and duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setInt32 := func(key string, dst *int32) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = int32(n)
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setInt("TESTAPP_PORT", &cfg.Server.Port)
	setString("TESTAPP_BASE_PATH", &cfg.Server.BasePath)
	setDuration("TESTAPP_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("TESTAPP_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)

	setString("TESTAPP_STORAGE", &cfg.Storage.Type)
	setString("TESTAPP_POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	setInt32("TESTAPP_POSTGRES_MAX_CONNS", &cfg.Storage.Postgres.MaxConns)
	setBool("TESTAPP_POSTGRES_MIGRATE", &cfg.Storage.Postgres.Migrate)

	setString("TESTAPP_CACHE", &cfg.Storage.Cache.Type)
	setDuration("TESTAPP_CACHE_TTL", &cfg.Storage.Cache.TTL)
	setString("TESTAPP_REDIS_ADDR", &cfg.Storage.Cache.Redis.Addr)
	setString("TESTAPP_REDIS_PASSWORD", &cfg.Storage.Cache.Redis.Password)
	setInt("TESTAPP_REDIS_DB", &cfg.Storage.Cache.Redis.DB)

	setString("TESTAPP_TOKEN_CODEC", &cfg.Auth.Token.Codec)
	setString("TESTAPP_TOKEN_SECRET", &cfg.Auth.Token.Secret)
	setString("TESTAPP_PASSWORD_HASHER", &cfg.Auth.Password.Hasher)
	setInt("TESTAPP_BCRYPT_COST", &cfg.Auth.Password.BcryptCost)
	setInt("TESTAPP_RATE_LIMIT_RPM", &cfg.Auth.RateLimit.RequestsPerMinute)

	// TESTAPP_PUBLIC_PATHS: comma-separated list replacing the default.
	if v := os.Getenv("TESTAPP_PUBLIC_PATHS"); v != "" {
		cfg.Auth.PublicPaths = splitList(v)
	}

	setBool("TESTAPP_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
	setString("TESTAPP_METRICS_PATH", &cfg.Observability.Metrics.Path)

	setString("TESTAPP_LOG_LEVEL", &cfg.Logging.Level)
	setString("TESTAPP_LOG_FORMAT", &cfg.Logging.Format)
	setString("TESTAPP_DEBUG", &cfg.Logging.Debug)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name  string
		file  string
		value *string
	}{
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"storage.cache.redis.password_file", cfg.Storage.Cache.Redis.PasswordFile, &cfg.Storage.Cache.Redis.Password},
		{"auth.token.secret_file", cfg.Auth.Token.SecretFile, &cfg.Auth.Token.Secret},
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.value = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
