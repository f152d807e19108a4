package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_BypassedOutsideProduction(t *testing.T) {
	for _, env := range []string{"", "test", "development"} {
		allowed, err := NewRateLimiter(nil, env).Allow(context.Background(), "signin", "ip:1", 1, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed, "env %q", env)
	}
}

func TestRateLimiter_NilRedis(t *testing.T) {
	allowed, err := NewRateLimiter(nil, "production").Allow(context.Background(), "signin", "ip:1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestRateLimiter_CountsAndExpires(t *testing.T) {
	mr, rdb := newMiniredis(t)
	limiter := NewRateLimiter(rdb, "production")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "signin", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx, "signin", "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	other, err := limiter.Allow(ctx, "signin", "ip:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other, "callers are counted separately")

	assert.Equal(t, time.Minute, mr.TTL("rl:signin:ip:1"))
	mr.FastForward(time.Minute + time.Second)

	allowed, err = limiter.Allow(ctx, "signin", "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Handler(t *testing.T) {
	_, rdb := newMiniredis(t)
	app := fiber.New()
	app.Post("/signin", NewRateLimiter(rdb, "production").Handler("signin", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/signin", nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_FailurePolicies(t *testing.T) {
	mr, rdb := newMiniredis(t)
	mr.Close()

	handler := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	limiter := NewRateLimiter(rdb, "production")

	open := fiber.New()
	open.Post("/signin", limiter.Handler("signin", 1, time.Minute), handler)
	resp, err := open.Test(httptest.NewRequest(http.MethodPost, "/signin", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	closed := fiber.New()
	closed.Post("/signin", limiter.WithPolicy(FailClosed).Handler("signin", 1, time.Minute), handler)
	resp, err = closed.Test(httptest.NewRequest(http.MethodPost, "/signin", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
