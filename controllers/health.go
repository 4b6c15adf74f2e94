package controllers

import (
	"context"
	"time"

	"attendtrack_go/database"

	"github.com/gofiber/fiber/v2"
)

// HealthController reports service and dependency status.
type HealthController struct{}

// GetHealthStatus pings the database and Redis and reports per-dependency
// status. Redis is optional, so a missing client degrades instead of failing.
func (hc *HealthController) GetHealthStatus(c *fiber.Ctx) error {
	overall := "healthy"
	statusCode := fiber.StatusOK

	dbStatus := "up"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
		overall = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	redisStatus := "up"
	if rc := database.GetRedisClient(); rc == nil {
		redisStatus = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    overall,
		"timestamp": time.Now().UTC(),
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
