package controllers

import (
	"attendtrack_go/database"
	"attendtrack_go/models"
	"attendtrack_go/services"

	"github.com/gofiber/fiber/v2"
)

// LogController exposes the activity log and its archives to admins.
type LogController struct {
	Archive *services.LogArchiveService
}

func NewLogController(archive *services.LogArchiveService) *LogController {
	return &LogController{Archive: archive}
}

// GetLogs retrieves paginated activity logs with optional filters
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 50)
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	query := database.DB.Model(&models.ActivityLog{}).Preload("User")
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	query.Count(&total)

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch logs",
		})
	}

	return c.JSON(fiber.Map{
		"logs":     logs,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetArchives lists finished log archives
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	var archives []models.LogArchive
	if err := database.DB.Order("created_at DESC").Find(&archives).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch archives",
		})
	}
	return c.JSON(fiber.Map{"archives": archives})
}

// FlushLogs forces the Redis log buffer into the database
func (lc *LogController) FlushLogs(c *fiber.Ctx) error {
	if err := lc.Archive.FlushCachedLogsToDatabase(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to flush cached logs",
		})
	}
	return c.JSON(fiber.Map{"message": "Cached logs flushed to database"})
}
