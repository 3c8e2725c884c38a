//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisCheckoutTokenStore(t *testing.T) {
	store := NewRedisCheckoutTokenStore(startRedis(t), time.Second)
	defer store.Close()

	ctx := context.Background()

	t.Run("redeems once", func(t *testing.T) {
		require.NoError(t, store.Issue(ctx, 1, "tok", time.Minute))

		ok, err := store.Redeem(ctx, 1, "tok")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Redeem(ctx, 1, "tok")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("concurrent redemption has a single winner", func(t *testing.T) {
		require.NoError(t, store.Issue(ctx, 2, "qr", time.Minute))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _ := store.Redeem(ctx, 2, "qr"); ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("token expires with its ttl", func(t *testing.T) {
		require.NoError(t, store.Issue(ctx, 3, "short", 50*time.Millisecond))
		time.Sleep(150 * time.Millisecond)

		ok, err := store.Redeem(ctx, 3, "short")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
