package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/storage"
	"github.com/ayhamallaham/testapp/pkg/storage/storetest"
	"github.com/ayhamallaham/testapp/pkg/users"
)

func init() {
	// Configure testcontainers to use podman when docker is not configured.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
				// Ryuk needs privileged mode with podman.
				if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
					os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
				}
			}
		}
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	_, dockerErr := exec.LookPath("docker")
	_, podmanErr := exec.LookPath("podman")
	if dockerErr != nil && podmanErr != nil && os.Getenv("DOCKER_HOST") == "" {
		t.Skip("no container runtime found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("testapp_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	}, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// truncate empties the user table between subtests sharing one container.
func truncate(t *testing.T, s *Store) {
	t.Helper()
	if _, err := s.pool.Exec(context.Background(), "TRUNCATE app_user RESTART IDENTITY"); err != nil {
		t.Fatalf("truncating app_user: %v", err)
	}
}

func TestPostgres_Conformance(t *testing.T) {
	store := setupTestDB(t)

	storetest.Run(t, func(t *testing.T) users.Store {
		truncate(t, store)
		return store
	})
}

func TestPostgres_MigrateIsIdempotent(t *testing.T) {
	store := setupTestDB(t)

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestPostgres_EmptyEmailIsNull(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	u := &api.User{Username: "noemail", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	var isNull bool
	err := store.pool.QueryRow(ctx, "SELECT email IS NULL FROM app_user WHERE id = $1", u.ID).Scan(&isNull)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !isNull {
		t.Error("empty email stored as a value, want NULL")
	}

	got, err := store.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != "" {
		t.Errorf("Email = %q, want empty", got.Email)
	}
}

func TestPostgres_RejectsEmptyUsername(t *testing.T) {
	store := setupTestDB(t)

	err := store.CreateUser(context.Background(), &api.User{Username: "", PasswordHash: "hash"})
	if err == nil {
		t.Fatal("expected check constraint violation for empty username")
	}
	if errors.Is(err, storage.ErrConflict) {
		t.Errorf("empty username reported as conflict: %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(errors.New("duplicate key 23505")) {
		t.Error("plain error classified as unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil classified as unique violation")
	}
	wrapped := fmt.Errorf("inserting: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Error("wrapped 23505 not classified as unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23514"}) {
		t.Error("check violation classified as unique violation")
	}
}
