package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter limits calls per key in a fixed time window.
// The counter lives in Redis so separate jamctl processes share one quota.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration

	redisClient *redis.Client
	redisPrefix string
}

// NewRedisFixedWindowLimiter creates a Redis-backed distributed limiter.
func NewRedisFixedWindowLimiter(addr, password, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "jamsession:ratelimit"
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		redisClient: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		redisPrefix: prefix,
	}, nil
}

// Allow returns true when the key is within quota.
// On Redis failures, it fails closed and returns false.
func (l *FixedWindowLimiter) Allow(key string) bool {
	if l == nil {
		return false
	}
	ok, err := l.allowRedis(context.Background(), normalizeKey(key))
	return err == nil && ok
}

// Wait blocks until key is within quota or ctx is done.
// Redis failures are returned instead of retried.
func (l *FixedWindowLimiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return errors.New("rate limiter not configured")
	}
	key = normalizeKey(key)
	for {
		ok, err := l.allowRedis(ctx, key)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		if ok {
			return nil
		}
		timer := time.NewTimer(l.untilNextWindow())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close releases the Redis connection pool.
func (l *FixedWindowLimiter) Close() error {
	if l == nil || l.redisClient == nil {
		return nil
	}
	return l.redisClient.Close()
}

func (l *FixedWindowLimiter) allowRedis(ctx context.Context, key string) (bool, error) {
	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		return true, nil
	}
	windowSlot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.redisPrefix, key, windowSlot)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.redisClient, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, err
	}
	return res <= int64(l.limit), nil
}

func (l *FixedWindowLimiter) untilNextWindow() time.Duration {
	windowMs := l.window.Milliseconds()
	nowMs := time.Now().UTC().UnixMilli()
	wait := time.Duration(windowMs-nowMs%windowMs) * time.Millisecond
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "unknown"
	}
	return key
}
