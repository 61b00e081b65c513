package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	redisStartupTimeout = 60 * time.Second
	redisCtxTimeout     = 10 * time.Second
)

var (
	sharedRedisAddr string
	sharedRedis     testcontainers.Container
	sharedRedisMu   sync.Mutex
)

func startRedis(ctx context.Context) (testcontainers.Container, string, error) {
	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections").WithStartupTimeout(redisStartupTimeout),
				wait.ForListeningPort("6379/tcp").WithStartupTimeout(redisStartupTimeout),
			),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start Redis container: %w", err)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := cont.MappedPort(ctx, "6379")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get container port: %w", err)
	}

	return cont, net.JoinHostPort(host, port.Port()), nil
}

// SetupTestRedis returns a client for a shared Redis container and a key
// prefix unique to the test.
func SetupTestRedis(t *testing.T) (*redis.Client, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedRedisMu.Lock()
	if sharedRedis == nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisStartupTimeout)
		cont, addr, err := startRedis(ctx)
		cancel()
		if err != nil {
			sharedRedisMu.Unlock()
			t.Skipf("Redis container unavailable: %v", err)
		}
		sharedRedis, sharedRedisAddr = cont, addr
	}
	addr := sharedRedisAddr
	sharedRedisMu.Unlock()

	client := redis.NewClient(&redis.Options{Addr: addr, PoolSize: 10})

	ctx, cancel := context.WithTimeout(context.Background(), redisCtxTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("Failed to ping Redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, fmt.Sprintf("test:%s:", t.Name())
}

// CleanupSharedRedis terminates the shared container.
func CleanupSharedRedis() {
	sharedRedisMu.Lock()
	defer sharedRedisMu.Unlock()

	if sharedRedis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sharedRedis.Terminate(ctx)
	sharedRedis = nil
}
