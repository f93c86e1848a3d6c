// middleware/ratelimit.go
package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimiter builds the global fixed-window limiter. Defaults match the
// historical edge: 100 requests per 60s window, keyed by client IP, with
// X-RateLimit-* headers on every response.
func RateLimiter() fiber.Handler {
	windowMs := envInt("RATE_LIMIT_WINDOW_MS", 60000)
	maxRequests := envInt("RATE_LIMIT_MAX_REQUESTS", 100)

	return limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: time.Duration(windowMs) * time.Millisecond,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests, please try again later.",
			})
		},
	})
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return v
}
