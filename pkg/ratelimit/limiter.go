// Package ratelimit provides a reusable rate limiter for outbound provider
// calls, replacing ad-hoc inter-call sleeps inside stages.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound calls. Wait blocks until a token is available or the
// context is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket is an in-process token bucket limiter. It refills at rate
// tokens per second up to burst.
type TokenBucket struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	tokens float64
	last   time.Time

	now func() time.Time
}

// NewTokenBucket creates a bucket that starts full.
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}

	if burst < 1 {
		burst = 1
	}

	return &TokenBucket{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
		now:    time.Now,
	}
}

// Wait consumes one token, sleeping until one is available.
func (b *TokenBucket) Wait(ctx context.Context) error {
	for {
		delay := b.reserve()
		if delay <= 0 {
			return nil
		}

		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token if one is available and otherwise returns how long to
// wait before trying again.
func (b *TokenBucket) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	b.tokens += elapsed * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}

	if b.tokens >= 1 {
		b.tokens--

		return 0
	}

	deficit := 1 - b.tokens

	return time.Duration(deficit / b.rate * float64(time.Second))
}

// Unlimited is a Limiter that never blocks. Useful in tests and for callers
// that bring their own pacing.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
