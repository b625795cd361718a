package geocode

import (
	"context"
)

// KeyedWaiter is a shared limiter that throttles by key, such as the
// Redis-backed fixed window limiter.
type KeyedWaiter interface {
	Wait(ctx context.Context, key string) error
}

// SharedLimiter adapts a keyed limiter so several processes can share one
// request budget for the geocoding service.
type SharedLimiter struct {
	waiter KeyedWaiter
	key    string
}

// NewSharedLimiter throttles all requests under key.
func NewSharedLimiter(waiter KeyedWaiter, key string) *SharedLimiter {
	if key == "" {
		key = "geocode"
	}
	return &SharedLimiter{waiter: waiter, key: key}
}

// Wait blocks until the shared window admits a request.
func (l *SharedLimiter) Wait(ctx context.Context) error {
	return l.waiter.Wait(ctx, l.key)
}
