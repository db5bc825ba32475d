// Package ratelimit bounds how many verification codes a user may submit in
// a time window, using a Redis fixed-window counter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "booktag:verify:"

// INCR, set the expiry on the first hit of a window, and report the count.
var fixedWindow = goredis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return c
`)

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// FixedWindowLimiter allows at most limit attempts per key per window.
// A nil client or a non-positive limit allows everything.
type FixedWindowLimiter struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
}

func NewFixedWindowLimiter(rdb *goredis.Client, limit int, window time.Duration) *FixedWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.rdb == nil || l.limit <= 0 {
		return true, nil
	}

	count, err := fixedWindow.Run(ctx, l.rdb, []string{keyPrefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit redis eval: %w", err)
	}
	return count <= int64(l.limit), nil
}

// Reset forgets the attempts recorded for key.
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	if l.rdb == nil {
		return nil
	}
	if err := l.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit redis del: %w", err)
	}
	return nil
}
