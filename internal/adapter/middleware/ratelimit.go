package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateWindow = time.Minute

// RateLimit allows perMin requests per client IP in each fixed one-minute
// window. It fails open when Redis is unreachable.
func RateLimit(rdb *redis.Client, perMin int, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := nowUTC()
			window := now.Truncate(rateWindow)
			key := fmt.Sprintf("ratelimit:public:%s:%d", c.RealIP(), window.Unix())

			ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
			defer cancel()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				log.Warn("rate limit store unavailable", zap.Error(err))
				return next(c)
			}
			if count == 1 {
				if err := rdb.Expire(ctx, key, rateWindow).Err(); err != nil {
					log.Warn("rate limit expiry failed", zap.String("key", key), zap.Error(err))
				}
			}
			if count > int64(perMin) {
				retry := window.Add(rateWindow).Sub(now)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests", "code": "rate_limited"})
			}
			return next(c)
		}
	}
}
