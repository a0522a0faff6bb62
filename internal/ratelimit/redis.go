package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript applies one hit atomically.
// KEYS[1] = counter key
// ARGV[1] = max requests
// ARGV[2] = window in milliseconds
// Returns {allowed, count, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = tonumber(redis.call("GET", key))
local ttl = redis.call("PTTL", key)

if not count or ttl < 0 then
    redis.call("SET", key, 1, "PX", window)
    return {1, 1, window}
end

if count >= max then
    return {0, count, ttl}
end

count = redis.call("INCR", key)
return {1, count, ttl}
`)

// Redis is a fixed-window limiter shared by every instance using the same
// Redis. Windows expire through key TTLs, so no sweeping is needed.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, identifier string, max int, window time.Duration) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, r.client, []string{r.prefix + identifier}, max, window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis limiter error: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return Decision{}, fmt.Errorf("invalid response from limiter script")
	}
	allowed, _ := vals[0].(int64)
	count, _ := vals[1].(int64)
	ttl, _ := vals[2].(int64)

	if allowed != 1 {
		return Decision{Allowed: false, RetryAfter: time.Duration(ttl) * time.Millisecond}, nil
	}
	return Decision{Allowed: true, Remaining: max - int(count)}, nil
}
