package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot/pkg/adapters/redis"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSessionStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := redis.NewFromClient(client,
		redis.WithTTL(time.Second),
		redis.WithPrefix("test:"),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()
	id := "guest_ttl"

	require.NoError(t, store.Save(ctx, id, domain.NewSession(id, now)))
	assert.True(t, mr.Exists("test:"+id))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, id)

	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	now = now.Add(2 * time.Second)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_LoadCorrupt(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"guest_bad", "{not json"))

	_, err := store.Load(context.Background(), "guest_bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
