package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/profile-service/internal/config"
)

// limiterScript refills the bucket in whole intervals, then takes one token.
// Reply: {allowed 0|1, tokens left, ms until the next refill when denied}.
var limiterScript = redis.NewScript(`
local now, cap, step, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local left, last = tonumber(b[1]), tonumber(b[2])
if left == nil or last == nil then
  left, last = cap, now
end
if every > 0 and step > 0 and now > last then
  local n = math.floor((now - last) / every)
  if n > 0 then
    left = math.min(cap, left + n * step)
    last = last + n * every
  end
end
local wait = 0
local ok = 0
if left > 0 then
  ok, left = 1, left - 1
else
  wait = math.max(0, every - (now - last))
end
redis.call('HSET', KEYS[1], 'tokens', left, 'last_refill_ms', last)
redis.call('PEXPIRE', KEYS[1], ttl)
return {ok, left, wait}
`)

type bucketReply struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func takeToken(c echo.Context, rdb redis.Scripter, cfg config.RateLimitConfig, key string) (bucketReply, error) {
	vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		cfg.TTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return bucketReply{}, err
	}
	if len(vals) != 3 {
		return bucketReply{}, fmt.Errorf("unexpected limiter reply %v", vals)
	}
	return bucketReply{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		retry:     time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per key with a Redis-backed token bucket.
// Redis failures let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb redis.Scripter, log *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			r, err := takeToken(c, rdb, cfg, key)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request", "key", key, "err", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(r.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if r.allowed {
				return next(c)
			}

			secs := int(math.Ceil(r.retry.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			log.Debug("rate limited", "key", key, "retry_after", r.retry)
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"success": false,
				"message": "rate limit exceeded",
				"data":    echo.Map{"retry_after": secs},
			})
		}
	}
}

// buildRateKey joins the identity parts named by the strategy ("ip_route",
// "user", ...). Unknown or empty strategies key on ip, user and route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	part := func(name string) (string, bool) {
		switch name {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			return ip, true
		case "user":
			return rateIdentity(c), true
		case "route":
			return c.Request().Method + " " + c.Path(), true
		}
		return "", false
	}

	build := func(names []string) (string, bool) {
		var sb strings.Builder
		sb.WriteString(cfg.Prefix)
		for _, n := range names {
			v, ok := part(n)
			if !ok {
				return "", false
			}
			sb.WriteString(":" + n + ":" + v)
		}
		return sb.String(), true
	}

	strategy := strings.ToLower(strings.TrimSpace(cfg.KeyStrategy))
	if strategy != "" {
		if key, ok := build(strings.Split(strategy, "_")); ok {
			return key
		}
	}
	key, _ := build([]string{"ip", "user", "route"})
	return key
}
