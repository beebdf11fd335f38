// Package ratelimit implements a fixed-window request limiter with a
// pluggable counter store. The limiter logic is identical for every
// backend; only where the counters live varies.
package ratelimit

import (
	"context"
	"time"
)

// Store holds per-key hit counters and block marks. Implementations
// must be safe for concurrent use.
type Store interface {
	// Incr adds one hit to key's current window and returns the updated
	// count together with when the window resets. A key whose window
	// has elapsed starts over at one.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// SetBlock marks key as blocked until the given instant.
	SetBlock(ctx context.Context, key string, until time.Time) error

	// GetBlock returns when key's block expires. The zero time means
	// not blocked.
	GetBlock(ctx context.Context, key string) (time.Time, error)

	// Sweep drops expired windows and block marks. Backends that expire
	// entries natively may make this a no-op.
	Sweep(ctx context.Context)
}
