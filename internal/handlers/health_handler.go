package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthHandler takes an optional redis client; nil leaves it out of the report.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
	}
	if err := database.Ping(h.db); err != nil {
		resp.DB = "unhealthy: " + err.Error()
	}
	if h.redis != nil {
		resp.Redis = "ok"
		if err := h.redis.Ping(c.UserContext()).Err(); err != nil {
			resp.Redis = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(resp)
}
