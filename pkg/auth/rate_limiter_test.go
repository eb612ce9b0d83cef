package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_ExhaustsAndRefills(t *testing.T) {
	ctx := context.Background()
	limiter := NewTokenBucketLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "client-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, allowed, "bucket is exhausted")

	time.Sleep(60 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, allowed, "one token refilled after the interval")
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter := NewTokenBucketLimiter(1, time.Minute)

	allowed, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _ = limiter.Allow(ctx, "client-1")
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "client-2")
	require.NoError(t, err)
	assert.True(t, allowed, "a different key has its own bucket")
}
