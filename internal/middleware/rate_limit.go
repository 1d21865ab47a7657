package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// incrExpireScript atomically increments the window counter and sets
// its expiry on first hit.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimit returns a fixed-window limiter keyed by client IP and
// route path. A nil client disables limiting entirely.
func RateLimit(rdb *redis.Client, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil {
				return next(c)
			}

			key := "rl:path:" + c.Path() + ":ip:" + c.RealIP()
			count, err := incrExpireScript.Run(c.Request().Context(), rdb, []string{key}, window.Milliseconds()).Int64()
			if err != nil {
				// Limiter outage must not take the API down with it.
				return next(c)
			}
			if count > limit {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, slow down")
			}
			return next(c)
		}
	}
}
