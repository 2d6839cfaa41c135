package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimiter enforces a minimum interval between gateway calls.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

// NewRateLimiter creates a limiter allowing requestsPerSecond calls.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Duration(float64(time.Second) / requestsPerSecond)}
}

// Wait blocks until the next call is allowed or the context expires.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if !rl.lastCall.IsZero() {
		if elapsed := now.Sub(rl.lastCall); elapsed < rl.interval {
			sleep = rl.interval - elapsed
		}
	}
	rl.lastCall = now.Add(sleep)
	rl.mu.Unlock()
	if sleep <= 0 {
		return nil
	}
	log.Debug().Dur("sleep", sleep).Msg("rate limiting gateway call")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}
