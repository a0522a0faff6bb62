package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

// FixedWindow limits each client IP to max requests per window using l. A
// limiter backend error lets the request through.
func FixedWindow(l ratelimit.Limiter, scope string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := l.Allow(c.UserContext(), scope+":"+c.IP(), max, window)
		if err != nil {
			slog.Error("rate limiter unavailable", "error", err, "scope", scope)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(d.RetryAfterSeconds()))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Too many requests. Please try again later.",
				Kind:    string(rejection.RateLimited),
			})
		}
		return c.Next()
	}
}
