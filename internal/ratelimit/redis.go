package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const incrScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`

// RedisStore keeps counters in Redis so every replica shares the same
// windows. Expiry is handled by Redis TTLs; Sweep is a no-op.
type RedisStore struct {
	client *redis.Client
	script *redis.Script
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(incrScript),
	}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	res, err := s.script.Run(ctx, s.client, []string{"ratelimit:" + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(res) < 2 {
		return 0, time.Time{}, redis.Nil
	}
	count, ttl := res[0], res[1]
	return count, time.Now().Add(time.Duration(ttl) * time.Millisecond), nil
}

func (s *RedisStore) SetBlock(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, "ratelimit:block:"+key, until.UTC().Format(time.RFC3339), ttl).Err()
}

func (s *RedisStore) GetBlock(ctx context.Context, key string) (time.Time, error) {
	ttl, err := s.client.PTTL(ctx, "ratelimit:block:"+key).Result()
	if err != nil {
		return time.Time{}, err
	}
	if ttl <= 0 {
		return time.Time{}, nil
	}
	return time.Now().Add(ttl), nil
}

func (s *RedisStore) Sweep(context.Context) {}
