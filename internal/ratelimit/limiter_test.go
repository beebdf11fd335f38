package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/invopay/internal/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLimiter(limit int, window, block time.Duration) (*Limiter, *clock.FakeClock, *MemoryStore) {
	fake := clock.NewFakeClock(time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(fake)
	return NewLimiter(store, fake, zap.NewNop(), limit, window, block), fake, store
}

func TestLimiterAllowsWithinLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter(3, time.Minute, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := limiter.Allow(ctx, "1.2.3.4")
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, int64(3-i-1), d.Remaining)
	}
}

func TestLimiterBlocksAfterLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter(2, time.Minute, 5*time.Minute)
	ctx := context.Background()

	limiter.Allow(ctx, "1.2.3.4")
	limiter.Allow(ctx, "1.2.3.4")

	d := limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)
	assert.Equal(t, 5*time.Minute, d.RetryAfter)

	// Still blocked even though the counting window would have reset.
	d = limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)
}

func TestLimiterBlockExpires(t *testing.T) {
	limiter, fake, _ := newTestLimiter(1, time.Minute, 5*time.Minute)
	ctx := context.Background()

	limiter.Allow(ctx, "1.2.3.4")
	d := limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)

	fake.Advance(5*time.Minute + time.Second)
	d = limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, d.Allowed)
}

func TestLimiterWindowResets(t *testing.T) {
	limiter, fake, _ := newTestLimiter(2, time.Minute, 5*time.Minute)
	ctx := context.Background()

	limiter.Allow(ctx, "1.2.3.4")
	limiter.Allow(ctx, "1.2.3.4")

	fake.Advance(61 * time.Second)
	d := limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Remaining)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter, _, _ := newTestLimiter(1, time.Minute, 5*time.Minute)
	ctx := context.Background()

	limiter.Allow(ctx, "1.2.3.4")
	d := limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)

	d = limiter.Allow(ctx, "5.6.7.8")
	assert.True(t, d.Allowed)
}

func TestMemoryStoreSweep(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(fake)
	ctx := context.Background()

	store.Incr(ctx, "a", time.Minute)
	store.SetBlock(ctx, "b", fake.Now().Add(time.Minute))

	fake.Advance(2 * time.Minute)
	store.Sweep(ctx)

	assert.Empty(t, store.entries)
	assert.Empty(t, store.blocks)
}
