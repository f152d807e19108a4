package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// RateLimiter counts requests per resource and caller in Redis.
// Limits are not enforced in development and test environments.
type RateLimiter struct {
	rdb    *redis.Client
	bypass bool
	policy FailPolicy
}

// NewRateLimiter returns a fail-open limiter. rdb may be nil, in which case
// every request is allowed.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	bypass := false
	switch env {
	case "", "test", "development":
		bypass = true
	}
	return &RateLimiter{rdb: rdb, bypass: bypass, policy: FailOpen}
}

// WithPolicy returns a copy of the limiter using policy when Redis fails.
func (l *RateLimiter) WithPolicy(policy FailPolicy) *RateLimiter {
	cp := *l
	cp.policy = policy
	return &cp
}

// Allow reports whether the caller id may make another request to resource
// within window. The counter expires window after the first hit.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l.bypass {
		return true, nil
	}
	if l.rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Handler returns a Fiber middleware enforcing limit requests per window,
// keyed by authenticated user when known and by remote IP otherwise.
func (l *RateLimiter) Handler(resource string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := l.Allow(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if l.policy == FailClosed {
				slog.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
					slog.String("resource", resource), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "rate limit unavailable"})
			}
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
