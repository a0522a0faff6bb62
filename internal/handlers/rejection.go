package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

// respondRejected writes a 400, or a 429 with Retry-After for rate limits, and
// logs the rejection without the submitted content.
func respondRejected(c *fiber.Ctx, rej *rejection.Error, action string) error {
	status := fiber.StatusBadRequest
	level := slog.LevelInfo
	switch rej.Kind {
	case rejection.RateLimited:
		status = fiber.StatusTooManyRequests
		level = slog.LevelWarn
		secs := int(rej.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
	case rejection.SuspectedBot:
		level = slog.LevelWarn
	}

	slog.Log(c.UserContext(), level, action+" rejected",
		"kind", string(rej.Kind),
		"field", rej.Field,
		"ip", c.IP(),
		"request_id", requestID(c),
	)

	return c.Status(status).JSON(dto.ErrorResponse{
		Error:   true,
		Message: rej.Message,
		Kind:    string(rej.Kind),
		Field:   rej.Field,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
