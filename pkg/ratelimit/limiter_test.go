package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_BurstThenThrottle(t *testing.T) {
	bucket := NewTokenBucket(10, 2)

	now := time.Now()
	bucket.now = func() time.Time { return now }
	bucket.last = now

	// Burst capacity admits two calls immediately.
	assert.Equal(t, time.Duration(0), bucket.reserve())
	assert.Equal(t, time.Duration(0), bucket.reserve())

	// Third call must wait for a refill at 10 tokens/s.
	delay := bucket.reserve()
	assert.InDelta(t, float64(100*time.Millisecond), float64(delay), float64(5*time.Millisecond))
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	bucket := NewTokenBucket(10, 1)

	now := time.Now()
	bucket.now = func() time.Time { return now }
	bucket.last = now

	require.Equal(t, time.Duration(0), bucket.reserve())

	// Advance half a second; five tokens accrue, capped at burst 1.
	now = now.Add(500 * time.Millisecond)
	assert.Equal(t, time.Duration(0), bucket.reserve())
}

func TestTokenBucket_WaitHonorsContext(t *testing.T) {
	bucket := NewTokenBucket(0.001, 1)

	require.NoError(t, bucket.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := bucket.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnlimited(t *testing.T) {
	assert.NoError(t, Unlimited{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, Unlimited{}.Wait(ctx))
}
