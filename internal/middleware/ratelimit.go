package middleware

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit limits requests per client IP with Redis counters: a per-second
// burst limit and a per-day quota. Limits come from RATE_LIMIT_PER_SECOND and
// RATE_LIMIT_PER_DAY; a limit of 0 disables that level.
func RateLimit(rdb *redis.Client) fiber.Handler {
	perSecond := envInt("RATE_LIMIT_PER_SECOND", 10)
	perDay := envInt("RATE_LIMIT_PER_DAY", 10000)

	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		now := time.Now()
		ip := c.IP()

		if perSecond > 0 {
			key := fmt.Sprintf("rl:%s:second:%d", ip, now.Unix())
			count, err := rdb.Incr(ctx, key).Result()
			if err == nil {
				rdb.Expire(ctx, key, 2*time.Second)

				if count > int64(perSecond) {
					c.Set("Retry-After", "1")
					return c.Status(429).JSON(fiber.Map{
						"error":       "rate_limit_exceeded",
						"message":     "Too many requests per second",
						"limit":       perSecond,
						"retry_after": 1,
					})
				}
			}
		}

		if perDay > 0 {
			key := fmt.Sprintf("rl:%s:day:%s", ip, now.Format("2006-01-02"))
			count, err := rdb.Incr(ctx, key).Result()
			if err == nil {
				// 25 hours so the counter survives timezone skew
				rdb.Expire(ctx, key, 25*time.Hour)

				if count > int64(perDay) {
					tomorrow := now.AddDate(0, 0, 1)
					midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
						0, 0, 0, 0, tomorrow.Location())
					retryAfter := int64(midnight.Sub(now).Seconds())

					c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
					return c.Status(429).JSON(fiber.Map{
						"error":       "daily_quota_exceeded",
						"message":     "Daily quota exceeded",
						"limit":       perDay,
						"used":        count,
						"retry_after": retryAfter,
						"reset_at":    midnight.Format(time.RFC3339),
					})
				}

				c.Set("X-RateLimit-Remaining-Day", strconv.FormatInt(int64(perDay)-count, 10))
			}
		}

		return c.Next()
	}
}

func envInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultValue
}
