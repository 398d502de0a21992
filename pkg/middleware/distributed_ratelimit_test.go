package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDistributedRateLimiter_AllowsUntilExhausted(t *testing.T) {
	rl := NewDistributedRateLimiter(newTestRedis(t), &RateLimitConfig{
		RequestsPerWindow: 3,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := rl.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := rl.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestDistributedRateLimiter_Remaining(t *testing.T) {
	rl := NewDistributedRateLimiter(newTestRedis(t), &RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	remaining, err := rl.Remaining(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, err = rl.Allow(ctx, "fresh")
	require.NoError(t, err)

	remaining, err = rl.Remaining(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestDistributedRateLimiter_Reset(t *testing.T) {
	rl := NewDistributedRateLimiter(newTestRedis(t), &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	_, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, rl.Reset(ctx, "k"))

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "test")

	mr.Close()

	allowed, err := rl.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, allowed, "redis outages must not lock users out")
}

func TestDistributedRateLimiter_Handler(t *testing.T) {
	rl := NewDistributedRateLimiter(newTestRedis(t), &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "test")
	handler := rl.Handler(testLogger())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestDistributedRateLimiter_WindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	rl := NewDistributedRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	_, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(2 * time.Minute)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}
