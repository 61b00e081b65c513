// Package testutil starts throwaway Postgres and Redis containers for
// integration tests. Tests using it are skipped in -short mode or when no
// Docker provider is reachable.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ASTROTRACKER_BACK-END/internal/database"
)

const (
	postgresStartupTimeout = 90 * time.Second
	postgresCtxTimeout     = 30 * time.Second
)

var (
	sharedPostgres   *postgresContainer
	sharedPostgresMu sync.Mutex
)

type postgresContainer struct {
	container testcontainers.Container
	dsn       string
}

func startPostgres(ctx context.Context) (*postgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "apod",
			"POSTGRES_PASSWORD": "apod",
			"POSTGRES_DB":       "astrotracker_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(postgresStartupTimeout),
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(postgresStartupTimeout),
		),
	}

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := cont.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &postgresContainer{
		container: cont,
		dsn:       fmt.Sprintf("postgres://apod:apod@%s:%s/astrotracker_test?sslmode=disable", host, port.Port()),
	}, nil
}

// SetupTestPostgres returns a migrated pool backed by a shared container.
// Tables are truncated when the test finishes.
func SetupTestPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedPostgresMu.Lock()
	if sharedPostgres == nil {
		ctx, cancel := context.WithTimeout(context.Background(), postgresStartupTimeout)
		cont, err := startPostgres(ctx)
		cancel()
		if err != nil {
			sharedPostgresMu.Unlock()
			t.Skipf("Postgres container unavailable: %v", err)
		}
		sharedPostgres = cont
	}
	dsn := sharedPostgres.dsn
	sharedPostgresMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), postgresCtxTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), postgresCtxTimeout)
		defer cleanupCancel()
		_, _ = pool.Exec(cleanupCtx, `TRUNCATE apod_data, users`)
		pool.Close()
	})

	return pool
}

// CleanupSharedPostgres terminates the shared container.
// Call it from TestMain after m.Run.
func CleanupSharedPostgres() {
	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()

	if sharedPostgres == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = sharedPostgres.container.Terminate(ctx)
	sharedPostgres = nil
}
