// Command server runs the testapp user API behind the access gate.
//
// Configuration is loaded from a YAML file, an optional .env file and
// TESTAPP_* environment variables (see pkg/config). Common variables:
//
//	TESTAPP_CONFIG        - Path to the YAML config file
//	TESTAPP_PORT          - Listen port (default: 8080)
//	TESTAPP_STORAGE       - Storage type: "memory" or "postgres" (default: "memory")
//	TESTAPP_POSTGRES_DSN  - PostgreSQL connection string
//	TESTAPP_CACHE         - Token lookup cache: "none" or "redis" (default: "none")
//	TESTAPP_REDIS_ADDR    - Redis address for the token cache
//	TESTAPP_TOKEN_CODEC   - "opaque" or "signed" (default: "opaque")
//	TESTAPP_TOKEN_SECRET  - HMAC secret for the signed codec (>= 32 bytes)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ayhamallaham/testapp/pkg/auth"
	"github.com/ayhamallaham/testapp/pkg/auth/bearer"
	"github.com/ayhamallaham/testapp/pkg/auth/password"
	"github.com/ayhamallaham/testapp/pkg/auth/token"
	"github.com/ayhamallaham/testapp/pkg/config"
	"github.com/ayhamallaham/testapp/pkg/debug"
	"github.com/ayhamallaham/testapp/pkg/storage/memory"
	"github.com/ayhamallaham/testapp/pkg/storage/postgres"
	"github.com/ayhamallaham/testapp/pkg/storage/rediscache"
	transporthttp "github.com/ayhamallaham/testapp/pkg/transport/http"
	"github.com/ayhamallaham/testapp/pkg/users"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hasher, err := password.New(cfg.Auth.Password.Hasher, cfg.Auth.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password hasher: %w", err)
	}

	codec, err := newCodec(cfg, logger)
	if err != nil {
		return err
	}

	svc := users.NewService(store, hasher, codec, logger)

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}
	publicPaths := cfg.Auth.PublicPaths
	if len(publicPaths) == 0 {
		publicPaths = auth.PublicPaths(metricsPath)
	}
	gate := auth.NewGate(auth.NewClassifier(cfg.Server.BasePath, publicPaths), logger, bearer.New(svc))

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithBasePath(cfg.Server.BasePath),
		transporthttp.WithTimeouts(cfg.Server.ReadHeaderTimeout, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	}
	opts = append(opts, transporthttp.WithMetricsPath(metricsPath))
	if rpm := cfg.Auth.RateLimit.RequestsPerMinute; rpm > 0 {
		opts = append(opts, transporthttp.WithRateLimiter(auth.NewInProcessLimiter(rpm)))
		logger.Info("rate limiting enabled", "requests_per_minute", rpm)
	}

	srv, err := transporthttp.NewServer(svc, gate, opts...)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("starting testapp",
		"port", cfg.Server.Port,
		"base_path", cfg.Server.BasePath,
		"storage", cfg.Storage.Type,
		"cache", cfg.Storage.Cache.Type,
		"token_codec", cfg.Auth.Token.Codec,
		"password_hasher", cfg.Auth.Password.Hasher,
	)
	return srv.Run(ctx)
}

// newStore builds the configured user store, optionally wrapped in the
// Redis token lookup cache.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (users.Store, error) {
	var store users.Store

	switch cfg.Storage.Type {
	case "postgres":
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.Storage.Postgres.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			MaxConnLifetime: cfg.Storage.Postgres.MaxConnLifetime,
			MigrateOnStart:  cfg.Storage.Postgres.Migrate,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		store = pg
		logger.Info("storage enabled", "type", "postgres", "migrate", cfg.Storage.Postgres.Migrate)
	default:
		store = memory.New()
		logger.Info("storage enabled", "type", "memory")
	}

	if cfg.Storage.Cache.Type == "redis" {
		rdb, err := rediscache.NewClient(ctx, rediscache.Config{
			Addr:     cfg.Storage.Cache.Redis.Addr,
			Password: cfg.Storage.Cache.Redis.Password,
			DB:       cfg.Storage.Cache.Redis.DB,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		store = rediscache.New(store, rdb, cfg.Storage.Cache.TTL, logger)
		logger.Info("token cache enabled", "type", "redis", "ttl", cfg.Storage.Cache.TTL)
	}

	return store, nil
}

// newCodec builds the configured token codec.
func newCodec(cfg *config.Config, logger *slog.Logger) (token.Codec, error) {
	switch cfg.Auth.Token.Codec {
	case "signed":
		codec, err := token.NewSigned([]byte(cfg.Auth.Token.Secret))
		if err != nil {
			return nil, fmt.Errorf("creating signed token codec: %w", err)
		}
		return codec, nil
	default:
		logger.Warn("opaque token codec in use: tokens are derived from user IDs and can be forged; set auth.token.codec to \"signed\" for production")
		return token.NewOpaque(), nil
	}
}
