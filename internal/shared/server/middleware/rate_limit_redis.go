package middleware

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"hrms-backend/internal/shared/telemetry"
)

// Fixed window counter; returns {allowed, pttl}.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if current > tonumber(ARGV[2]) then
  return {0, ttl}
end
return {1, ttl}
`

// RedisLimiter shares rate limit windows across API replicas.
type RedisLimiter struct {
	client  redis.Scripter
	script  *redis.Script
	prefix  string
	timeout time.Duration
}

func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = "hrms:ratelimit:"
	}
	return &RedisLimiter{
		client:  client,
		script:  redis.NewScript(rateLimitScript),
		prefix:  prefix,
		timeout: 250 * time.Millisecond,
	}
}

// Allow fails open when Redis is unreachable.
func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	if key == "" || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	window := windowFor(rule)
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, window.Milliseconds(), rule.Burst).Int64Slice()
	if err != nil || len(res) != 2 {
		telemetry.Warn("ratelimit.redis_failed", map[string]any{"key": key, "error": err})
		return true, 0
	}
	if res[0] == 1 {
		return true, 0
	}
	return false, time.Duration(res[1]) * time.Millisecond
}

// windowFor converts a token bucket rule into the equivalent fixed window.
func windowFor(rule RateLimitRule) time.Duration {
	ms := math.Ceil(float64(rule.Burst) / rule.Rate * 1000.0)
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}
