package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a single-token bucket refilled at a fixed rate. It keeps the
// ingester under an upstream's per-minute request quota.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration // time to earn one token
	tokens   float64
	last     time.Time
}

// NewRateLimiter allows perMinute operations per minute. Non-positive values
// disable limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	var interval time.Duration
	if perMinute > 0 {
		interval = time.Minute / time.Duration(perMinute)
	}
	return &RateLimiter{interval: interval, tokens: 1, last: time.Now()}
}

// reserve takes a token if one is available, otherwise returns how long until
// the next token.
func (rl *RateLimiter) reserve(now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.interval == 0 {
		return 0
	}
	rl.tokens += float64(now.Sub(rl.last)) / float64(rl.interval)
	if rl.tokens > 1 {
		rl.tokens = 1
	}
	rl.last = now
	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}
	return time.Duration((1 - rl.tokens) * float64(rl.interval))
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := rl.reserve(time.Now())
		if wait == 0 {
			return nil
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
