package ratelimit

import (
	"context"
	"time"

	"github.com/smallbiznis/invopay/internal/clock"
	"go.uber.org/zap"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter enforces a fixed-window limit per key, with a penalty block
// once a key exceeds its window. Blocks expire on their own; no manual
// unblocking is needed.
type Limiter struct {
	store  Store
	clock  clock.Clock
	log    *zap.Logger
	limit  int64
	window time.Duration
	block  time.Duration
}

func NewLimiter(store Store, c clock.Clock, log *zap.Logger, limit int, window, block time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		clock:  c,
		log:    log.Named("ratelimit"),
		limit:  int64(limit),
		window: window,
		block:  block,
	}
}

// Allow records one hit for key and reports whether the request may
// proceed. On store failure the request is allowed; the limiter
// protects against abuse, it must not take the endpoint down with it.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	now := l.clock.Now()

	blockedUntil, err := l.store.GetBlock(ctx, key)
	if err != nil {
		l.log.Warn("rate limit store unavailable", zap.Error(err))
		return Decision{Allowed: true, Remaining: l.limit}
	}
	if blockedUntil.After(now) {
		return Decision{RetryAfter: blockedUntil.Sub(now)}
	}

	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.log.Warn("rate limit store unavailable", zap.Error(err))
		return Decision{Allowed: true, Remaining: l.limit}
	}

	if count > l.limit {
		until := now.Add(l.block)
		if err := l.store.SetBlock(ctx, key, until); err != nil {
			l.log.Warn("rate limit block not persisted", zap.Error(err))
		}
		l.log.Info("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
		)
		return Decision{RetryAfter: l.block}
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}
}
