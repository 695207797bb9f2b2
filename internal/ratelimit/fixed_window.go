package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Fixed-window counter: the first hit for a key opens a window and sets a
// TTL; hits inside the window increment the counter; the key expiring opens
// the next window. Expired entries are swept by Redis TTL, so memory stays
// bounded without a sweeper goroutine.
const fixedWindowScript = `
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], window)
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], window)
  ttl = window
end

return {count, ttl}
`

type FixedWindow struct {
	client *redis.Client
	script *redis.Script

	limit  int
	window time.Duration
}

// Result reports one admission decision. ResetAt is when the current
// window ends; RetryAfter is only meaningful when Success is false.
type Result struct {
	Success    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

func NewFixedWindow(client *redis.Client, limit int, window time.Duration) *FixedWindow {
	if client == nil {
		return nil
	}
	return &FixedWindow{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		limit:  limit,
		window: window,
	}
}

// Check admits or rejects one request for the identifier. This is
// best-effort abuse mitigation, not a correctness guarantee: a Redis error
// surfaces to the caller, and the window boundary is only as precise as the
// key's TTL.
func (f *FixedWindow) Check(ctx context.Context, identifier string) (*Result, error) {
	if f == nil || f.client == nil {
		return &Result{Success: false}, errors.New("rate limiter not configured")
	}
	if identifier == "" {
		return &Result{Success: false}, errors.New("rate limiter identifier is empty")
	}
	if f.limit <= 0 || f.window <= 0 {
		return &Result{Success: false}, errors.New("rate limiter limit and window must be positive")
	}

	res, err := f.script.Run(
		ctx,
		f.client,
		[]string{"ratelimit:" + identifier},
		f.limit,
		int64(f.window/time.Millisecond),
	).Slice()
	if err != nil {
		return &Result{Success: false}, err
	}
	if len(res) < 2 {
		return &Result{Success: false}, errors.New("invalid rate limit script response")
	}

	count := castToInt(res[0])
	ttl := time.Duration(castToInt(res[1])) * time.Millisecond

	remaining := f.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	resetAt := time.Now().Add(ttl)
	result := &Result{
		Success:   count <= int64(f.limit),
		Limit:     f.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !result.Success {
		result.RetryAfter = ttl
	}

	return result, nil
}

func castToInt(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
