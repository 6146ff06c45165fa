package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setupTestRL(t *testing.T) *RateLimiter {
	t.Helper()
	client, _ := newTestRedis(t)
	return NewRateLimiter(client, discardLogger())
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := setupTestRL(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(ctx, "acq-queue", 5), "request %d", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := setupTestRL(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl.Allow(ctx, "acq-queue", 3)
	}
	assert.False(t, rl.Allow(ctx, "acq-queue", 3))
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	rl := setupTestRL(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		assert.True(t, rl.Allow(ctx, "acq-queue", 0))
	}
}

func TestRateLimiter_KeysAreIsolated(t *testing.T) {
	rl := setupTestRL(t)
	ctx := context.Background()

	rl.Allow(ctx, "queue-a", 2)
	rl.Allow(ctx, "queue-a", 2)

	assert.False(t, rl.Allow(ctx, "queue-a", 2))
	assert.True(t, rl.Allow(ctx, "queue-b", 2))
}
