package redisdb

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// Requires Redis running on localhost:6379
const testRedisAddr = "localhost:6379"

func setupTestRepo(t *testing.T) (*CartRepository, *redis.Client) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	prefix := "cart-test:" + uuid.NewString()[:8] + ":"
	repo := NewCartRepository(client, prefix,
		noop.NewTracerProvider().Tracer("test"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return repo, client
}

func TestCartRepository_RoundTrip(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	_, err := repo.FindByOwner(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	cart := domain.NewCart("u1")
	cart.Items = append(cart.Items,
		domain.CartLine{ProductID: "p1", Quantity: 2},
		domain.CartLine{ProductID: "p2", Quantity: 5},
	)
	require.NoError(t, repo.Save(ctx, cart))

	found, err := repo.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.Owner)
	assert.Equal(t, cart.Items, found.Items)
}

func TestCartRepository_CorruptRecord(t *testing.T) {
	repo, client := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, repo.key("u1"), "not json", 0).Err())

	_, err := repo.FindByOwner(ctx, "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
