package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"
)

// KeyFormat is the Redis hash holding one user's bucket for one action
const KeyFormat = "rate_limit:%s:%s"

// takeScript refills the bucket for the elapsed time and, when ARGV[5] is 1,
// consumes a token. It returns {allowed, tokens left}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local consume = tonumber(ARGV[5]) == 1

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	if not consume then
		return {0, tokens}
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// Decision is the outcome of one Take call
type Decision struct {
	Allowed   bool
	Remaining int64
	Limit     int64
}

// TokenBucket is a Redis-backed token bucket shared by every API instance
type TokenBucket struct {
	redis    *redis.Client
	clock    clock.Clock
	capacity int64
	refill   int64
	window   time.Duration
}

// NewTokenBucket creates a bucket holding capacity tokens that regains
// refillPerMinute tokens every minute
func NewTokenBucket(redisClient *redis.Client, capacity, refillPerMinute int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		clock:    clock.WallClock,
		capacity: capacity,
		refill:   refillPerMinute,
		window:   time.Minute,
	}
}

// WithClock replaces the wall clock, mainly for tests
func (tb *TokenBucket) WithClock(clk clock.Clock) *TokenBucket {
	tb.clock = clk
	return tb
}

// Limit returns the bucket capacity
func (tb *TokenBucket) Limit() int64 {
	return tb.capacity
}

// Take consumes a token for userID's action when one is available
func (tb *TokenBucket) Take(ctx context.Context, userID, action string) (Decision, error) {
	allowed, tokens, err := tb.run(ctx, userID, action, true)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	return Decision{Allowed: allowed, Remaining: tokens, Limit: tb.capacity}, nil
}

// Allow reports whether userID may perform action now, consuming a token if so
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	d, err := tb.Take(ctx, userID, action)
	return d.Allowed, err
}

// GetRemaining returns the tokens left without consuming one
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	_, tokens, err := tb.run(ctx, userID, action, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return tokens, nil
}

// Reset clears the rate limit for a specific user action
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, fmt.Sprintf(KeyFormat, userID, action)).Err()
}

func (tb *TokenBucket) run(ctx context.Context, userID, action string, consume bool) (bool, int64, error) {
	flag := 0
	if consume {
		flag = 1
	}

	key := fmt.Sprintf(KeyFormat, userID, action)
	result, err := takeScript.Run(ctx, tb.redis, []string{key},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.clock.Now().Unix(), flag).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected result %v from rate limit script", result)
	}
	allowed, okA := values[0].(int64)
	tokens, okT := values[1].(int64)
	if !okA || !okT {
		return false, 0, fmt.Errorf("unexpected result %v from rate limit script", result)
	}
	return allowed == 1, tokens, nil
}
