package controllers

import (
	"attendtrack_go/database"
	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type GroupController struct{}

// GroupRequest represents the group create/update request body
type GroupRequest struct {
	Name   string `json:"name" validate:"required"`
	Level  string `json:"level"`
	Active *bool  `json:"active"`
}

// GetGroups returns all groups with member counts
func (gc *GroupController) GetGroups(c *fiber.Ctx) error {
	var groups []models.Group
	if err := database.DB.Order("name").Find(&groups).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch groups",
		})
	}

	result := make([]fiber.Map, 0, len(groups))
	for _, group := range groups {
		var memberCount int64
		database.DB.Model(&models.Student{}).Where("group_id = ? AND active = ?", group.ID, true).Count(&memberCount)
		result = append(result, fiber.Map{
			"id":           group.ID,
			"name":         group.Name,
			"level":        group.Level,
			"active":       group.Active,
			"member_count": memberCount,
		})
	}

	return c.JSON(fiber.Map{"groups": result})
}

// GetGroup returns a single group with its students
func (gc *GroupController) GetGroup(c *fiber.Ctx) error {
	var group models.Group
	if err := database.DB.Preload("Students").First(&group, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}
	return c.JSON(fiber.Map{"group": group})
}

// CreateGroup creates a new group
func (gc *GroupController) CreateGroup(c *fiber.Ctx) error {
	var req GroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	group := models.Group{
		Name:   utils.SanitizeString(req.Name),
		Level:  utils.SanitizeString(req.Level),
		Active: true,
	}
	if req.Active != nil {
		group.Active = *req.Active
	}

	if err := database.DB.Create(&group).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Failed to create group (name may already exist)",
		})
	}

	middleware.LogActivity(c, "CREATE", "groups", "", fiber.Map{"name": group.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Group created successfully",
		"group":   group,
	})
}

// UpdateGroup updates an existing group
func (gc *GroupController) UpdateGroup(c *fiber.Ctx) error {
	var group models.Group
	if err := database.DB.First(&group, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	var req GroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.SanitizeString(req.Name)
	}
	if req.Level != "" {
		updates["level"] = utils.SanitizeString(req.Level)
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&group).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update group",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Group updated successfully",
		"group":   group,
	})
}

// DeleteGroup soft-deletes a group with no active students
func (gc *GroupController) DeleteGroup(c *fiber.Ctx) error {
	var group models.Group
	if err := database.DB.First(&group, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	var memberCount int64
	database.DB.Model(&models.Student{}).Where("group_id = ?", group.ID).Count(&memberCount)
	if memberCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Group still has students",
		})
	}

	if err := database.DB.Delete(&group).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete group",
		})
	}

	return c.JSON(fiber.Map{"message": "Group deleted successfully"})
}
