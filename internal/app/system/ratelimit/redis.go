// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter for KEYS[1], starting a window of
// ARGV[1] milliseconds on the first hit. Returns {count, pttl}.
var fixedWindow = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return { count, ttl }
`)

// RedisLimiter is a fixed-window limiter shared by every process pointed at
// the same Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

// NewRedis creates a limiter allowing limit requests per window per key.
// Keys are stored as prefix:key.
func NewRedis(rdb redis.Scripter, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Take records a request for key in Redis.
func (l *RedisLimiter) Take(ctx context.Context, key string) (Decision, error) {
	vals, err := fixedWindow.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(vals) != 2 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
	}

	count := asInt64(vals[0])
	ttl := time.Duration(asInt64(vals[1])) * time.Millisecond

	d := Decision{Limit: l.limit}
	if count <= int64(l.limit) {
		d.Allowed = true
		d.Remaining = l.limit - int(count)
		return d, nil
	}
	d.RetryAfter = ttl
	return d, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
