package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Options configures a FixedWindowLimiter.
type Options struct {
	Prefix string
	Limit  int
	Window time.Duration
	// FailOpen admits requests when Redis cannot be reached.
	FailOpen bool
}

// FixedWindowLimiter limits requests per key in a fixed time window
// using a counter shared through Redis.
type FixedWindowLimiter struct {
	limit    int
	window   time.Duration
	client   *redis.Client
	prefix   string
	failOpen bool
}

// New creates a limiter on top of an existing Redis client.
func New(client *redis.Client, opts Options) (*FixedWindowLimiter, error) {
	if opts.Limit <= 0 || opts.Window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter redis client is required")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "dockerlab:ratelimit"
	}
	return &FixedWindowLimiter{
		limit:    opts.Limit,
		window:   opts.Window,
		client:   client,
		prefix:   prefix,
		failOpen: opts.FailOpen,
	}, nil
}

// Allow reports whether key is still within quota for the current window.
// A nil limiter allows everything.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		return true
	}
	windowSlot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowSlot)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		slog.Warn("rate limiter unavailable", "err", err, "fail_open", l.failOpen)
		return l.failOpen
	}
	return count <= int64(l.limit)
}
