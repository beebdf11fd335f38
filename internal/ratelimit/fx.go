package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invopay/internal/clock"
	"github.com/smallbiznis/invopay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

// Module provides the verification limiter backed by the configured
// store. Memory is the default; redis shares windows across replicas.
var Module = fx.Module("ratelimit",
	fx.Provide(NewStore, NewVerifyLimiter),
	fx.Invoke(startSweeper),
)

func NewStore(cfg config.Config, c clock.Clock, log *zap.Logger) Store {
	if cfg.RateLimitStore == "redis" && cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		log.Info("rate limit store", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return NewRedisStore(client)
	}
	log.Info("rate limit store", zap.String("backend", "memory"))
	return NewMemoryStore(c)
}

func NewVerifyLimiter(cfg config.Config, store Store, c clock.Clock, log *zap.Logger) *Limiter {
	return NewLimiter(
		store,
		c,
		log,
		cfg.VerifyRateLimit,
		time.Duration(cfg.VerifyRateWindowSec)*time.Second,
		time.Duration(cfg.VerifyBlockSec)*time.Second,
	)
}

func startSweeper(lc fx.Lifecycle, store Store) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						store.Sweep(ctx)
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
