package controllers

import (
	"time"

	"attendtrack_go/config"
	"attendtrack_go/database"
	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type RoomController struct{}

// RoomRequest represents the room create/update request body
type RoomRequest struct {
	RoomName string `json:"room_name" validate:"required"`
	ESP32ID  string `json:"esp32_id" validate:"required"`
	Capacity int    `json:"capacity"`
	Active   *bool  `json:"active"`
}

// GetRooms returns all rooms with an online flag derived from last_seen
func (rc *RoomController) GetRooms(c *fiber.Ctx) error {
	var rooms []models.Room
	if err := database.DB.Order("room_name").Find(&rooms).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch rooms",
		})
	}

	offlineAfter := config.AppConfig.DeviceOfflineAfter
	now := time.Now()
	result := make([]fiber.Map, 0, len(rooms))
	for _, room := range rooms {
		online := room.LastSeen != nil && now.Sub(*room.LastSeen) < offlineAfter
		result = append(result, fiber.Map{
			"id":        room.ID,
			"room_name": room.RoomName,
			"esp32_id":  room.ESP32ID,
			"capacity":  room.Capacity,
			"active":    room.Active,
			"last_seen": room.LastSeen,
			"online":    online,
		})
	}

	return c.JSON(fiber.Map{"rooms": result})
}

// GetRoom returns a single room by ID
func (rc *RoomController) GetRoom(c *fiber.Ctx) error {
	var room models.Room
	if err := database.DB.First(&room, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Room not found",
		})
	}
	return c.JSON(fiber.Map{"room": room})
}

// CreateRoom creates a new room
func (rc *RoomController) CreateRoom(c *fiber.Ctx) error {
	var req RoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.RoomName == "" || req.ESP32ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "room_name and esp32_id are required",
		})
	}

	var existing models.Room
	if err := database.DB.Where("esp32_id = ?", req.ESP32ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A room with this esp32_id already exists",
		})
	}

	room := models.Room{
		RoomName: utils.SanitizeString(req.RoomName),
		ESP32ID:  utils.SanitizeString(req.ESP32ID),
		Capacity: req.Capacity,
		Active:   true,
	}
	if req.Active != nil {
		room.Active = *req.Active
	}

	if err := database.DB.Create(&room).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create room",
		})
	}

	middleware.LogActivity(c, "CREATE", "rooms", "", fiber.Map{"room_name": room.RoomName})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Room created successfully",
		"room":    room,
	})
}

// UpdateRoom updates an existing room
func (rc *RoomController) UpdateRoom(c *fiber.Ctx) error {
	var room models.Room
	if err := database.DB.First(&room, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Room not found",
		})
	}

	var req RoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.RoomName != "" {
		updates["room_name"] = utils.SanitizeString(req.RoomName)
	}
	if req.ESP32ID != "" && req.ESP32ID != room.ESP32ID {
		var other models.Room
		if err := database.DB.Where("esp32_id = ? AND id != ?", req.ESP32ID, room.ID).First(&other).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A room with this esp32_id already exists",
			})
		}
		updates["esp32_id"] = utils.SanitizeString(req.ESP32ID)
	}
	if req.Capacity > 0 {
		updates["capacity"] = req.Capacity
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&room).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update room",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Room updated successfully",
		"room":    room,
	})
}

// DeleteRoom soft-deletes a room
func (rc *RoomController) DeleteRoom(c *fiber.Ctx) error {
	var room models.Room
	if err := database.DB.First(&room, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Room not found",
		})
	}

	var scheduleCount int64
	database.DB.Model(&models.ScheduleEntry{}).Where("room_id = ?", room.ID).Count(&scheduleCount)
	if scheduleCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Room still has schedule entries",
		})
	}

	if err := database.DB.Delete(&room).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete room",
		})
	}

	return c.JSON(fiber.Map{"message": "Room deleted successfully"})
}
