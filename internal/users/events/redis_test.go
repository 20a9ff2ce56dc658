package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs a throwaway Redis container and returns its address.
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisPublisher(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	p, err := NewRedisPublisher(ctx, addr, "users.events")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	require.NoError(t, p.Publish(ctx, sampleRecords()))

	reader := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = reader.Close() })

	msgs, err := reader.XRange(ctx, "users.events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "e1", msgs[0].Values["id"])
	require.Equal(t, "user.created", msgs[0].Values["type"])
	require.Equal(t, "user.authenticated", msgs[1].Values["type"])
	require.Equal(t, `{"userId":"u1"}`, msgs[1].Values["payload"])
}

func TestRedisPublisher_Unreachable(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), "127.0.0.1:1", "users.events")
	require.Error(t, err)
}
