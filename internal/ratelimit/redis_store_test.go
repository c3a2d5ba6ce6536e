// internal/ratelimit/redis_store_test.go
package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"jury-service/internal/common/config"
	"jury-service/internal/common/logger"
)

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	entry := &Entry{Count: 3, WindowReset: time.Now().UTC().Add(time.Minute)}
	assert.NoError(t, store.Set(ctx, "1.2.3.4:/api/summary", entry, time.Minute))

	got, err := store.Get(ctx, "1.2.3.4:/api/summary")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 3, got.Count)

	assert.NoError(t, store.Delete(ctx, "1.2.3.4:/api/summary"))
	got, err = store.Get(ctx, "1.2.3.4:/api/summary")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_MissingKeyIsNil(t *testing.T) {
	store, _ := newMiniredisStore(t)

	got, err := store.Get(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "k", &Entry{Count: 1}, time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestLimiter_WithRedisStore(t *testing.T) {
	store, _ := newMiniredisStore(t)

	cfg := config.RateLimitConfig{
		Default:         config.RateLimitRule{WindowMs: 60000, MaxRequests: 2},
		BlockDurationMs: 3600000,
		BlockAfter:      5,
	}
	l := NewLimiter(store, cfg, logger.NewNoOpLogger())
	ctx := context.Background()

	res, _ := l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.True(t, res.Allowed)
	res, _ = l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.True(t, res.Allowed)
	res, _ = l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonRateLimitExceeded, res.Reason)
}
