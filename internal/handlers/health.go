package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"smmpanel/internal/repositories/cache"
	"smmpanel/internal/utils"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.CacheService
}

func NewHealthHandler(db *gorm.DB, cacheSvc *cache.CacheService) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheSvc}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"status": "degraded", "database": "down"})
	}

	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			return utils.Success(c, fiber.Map{"status": "ok", "cache": "down"})
		}
	}
	return utils.Success(c, fiber.Map{"status": "ok"})
}
