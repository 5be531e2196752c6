package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces calls at least one interval apart across goroutines.
// A zero interval never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter allowing one call every intervalMs.
func NewRateLimiter(intervalMs int) *RateLimiter {
	if intervalMs <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	every := rate.Every(time.Duration(intervalMs) * time.Millisecond)
	return &RateLimiter{limiter: rate.NewLimiter(every, 1)}
}

// Wait blocks until the caller's slot comes up or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	return rl.limiter.Wait(ctx)
}
