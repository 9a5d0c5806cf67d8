package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR and PEXPIRE run atomically so concurrent instances agree on the window start.
var hitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore shares counters across instances.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Hit, error) {
	res, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Hit{}, fmt.Errorf("ratelimit hit %q: %w", key, err)
	}
	if len(res) != 2 {
		return Hit{}, fmt.Errorf("ratelimit hit %q: unexpected reply %v", key, res)
	}

	return Hit{
		Count:   int(res[0]),
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
