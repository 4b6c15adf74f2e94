package controllers

import (
	"attendtrack_go/database"
	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/services"
	"attendtrack_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"
)

type ScheduleController struct{}

// ScheduleEntryRequest represents the schedule entry create/update request body
type ScheduleEntryRequest struct {
	RoomID    uint   `json:"room_id" validate:"required"`
	Day       string `json:"day" validate:"required"`
	TimeSlot  string `json:"time_slot" validate:"required"` // "HH:MM-HH:MM"
	GroupID   uint   `json:"group_id" validate:"required"`
	SubjectID uint   `json:"subject_id" validate:"required"`
}

// CopyDayRequest represents the copy-day request body
type CopyDayRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// GetSchedules returns schedule entries, optionally filtered by day, room or group
func (sc *ScheduleController) GetSchedules(c *fiber.Ctx) error {
	query := database.DB.Preload("Room").Preload("Group").Preload("Subject")
	if day := c.Query("day"); day != "" {
		query = query.Where("day = ?", day)
	}
	if roomID := c.Query("room_id"); roomID != "" {
		query = query.Where("room_id = ?", roomID)
	}
	if groupID := c.Query("group_id"); groupID != "" {
		query = query.Where("group_id = ?", groupID)
	}

	var entries []models.ScheduleEntry
	if err := query.Order("day, start_time, room_id").Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedule entries",
		})
	}
	return c.JSON(fiber.Map{"schedules": entries})
}

// GetConflicts runs the double-booking detector over the full schedule
func (sc *ScheduleController) GetConflicts(c *fiber.Ctx) error {
	conflicts, err := services.ListConflicts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to detect conflicts",
		})
	}
	return c.JSON(fiber.Map{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}

// CreateSchedule creates a new schedule entry
func (sc *ScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req ScheduleEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entry, errMsg := sc.buildEntry(req)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	var existing models.ScheduleEntry
	if err := database.DB.Where("room_id = ? AND day = ? AND start_time = ?",
		entry.RoomID, entry.Day, entry.StartTime).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Room is already booked for this slot",
		})
	}

	if err := database.DB.Create(entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create schedule entry",
		})
	}

	middleware.LogActivity(c, "CREATE", "schedules", "", fiber.Map{
		"room_id": entry.RoomID, "day": entry.Day, "slot": entry.TimeSlot(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Schedule entry created successfully",
		"schedule": entry,
	})
}

// UpdateSchedule updates an existing schedule entry
func (sc *ScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	var entry models.ScheduleEntry
	if err := database.DB.First(&entry, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule entry not found",
		})
	}

	var req ScheduleEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, errMsg := sc.buildEntry(req)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	var other models.ScheduleEntry
	if err := database.DB.Where("room_id = ? AND day = ? AND start_time = ? AND id != ?",
		updated.RoomID, updated.Day, updated.StartTime, entry.ID).First(&other).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Room is already booked for this slot",
		})
	}

	updates := map[string]interface{}{
		"room_id":    updated.RoomID,
		"day":        updated.Day,
		"start_time": updated.StartTime,
		"end_time":   updated.EndTime,
		"group_id":   updated.GroupID,
		"subject_id": updated.SubjectID,
	}
	if err := database.DB.Model(&entry).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update schedule entry",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Schedule entry updated successfully",
		"schedule": entry,
	})
}

// DeleteSchedule removes a schedule entry
func (sc *ScheduleController) DeleteSchedule(c *fiber.Ctx) error {
	var entry models.ScheduleEntry
	if err := database.DB.First(&entry, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule entry not found",
		})
	}

	if err := database.DB.Delete(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete schedule entry",
		})
	}

	return c.JSON(fiber.Map{"message": "Schedule entry deleted successfully"})
}

// CopyDay copies every slot from one weekday to another. Slots already taken
// on the target day are reported and skipped, the rest are copied.
func (sc *ScheduleController) CopyDay(c *fiber.Ctx) error {
	var req CopyDayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	from, to := models.Weekday(req.From), models.Weekday(req.To)
	if !from.Valid() || !to.Valid() || from == to {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from and to must be distinct weekdays (mon..sat)",
		})
	}

	var source []models.ScheduleEntry
	if err := database.DB.Where("day = ?", from).Find(&source).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load source day",
		})
	}

	copied := 0
	var skipped []fiber.Map
	for _, src := range source {
		entry := models.ScheduleEntry{
			RoomID:    src.RoomID,
			Day:       to,
			StartTime: src.StartTime,
			EndTime:   src.EndTime,
			GroupID:   src.GroupID,
			SubjectID: src.SubjectID,
		}
		result := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if result.Error != nil {
			skipped = append(skipped, fiber.Map{
				"room_id": src.RoomID, "slot": src.TimeSlot(), "reason": "insert failed",
			})
			continue
		}
		if result.RowsAffected == 0 {
			skipped = append(skipped, fiber.Map{
				"room_id": src.RoomID, "slot": src.TimeSlot(), "reason": "slot already taken",
			})
			continue
		}
		copied++
	}

	middleware.LogActivity(c, "COPY_DAY", "schedules", "", fiber.Map{
		"from": from, "to": to, "copied": copied, "skipped": len(skipped),
	})

	return c.JSON(fiber.Map{
		"message": "Day copied",
		"copied":  copied,
		"skipped": skipped,
	})
}

// buildEntry validates a request and assembles a normalized entry.
// Returns a non-empty error message on validation failure.
func (sc *ScheduleController) buildEntry(req ScheduleEntryRequest) (*models.ScheduleEntry, string) {
	day := models.Weekday(req.Day)
	if !day.Valid() {
		return nil, "day must be one of mon..sat"
	}
	if req.RoomID == 0 || req.GroupID == 0 || req.SubjectID == 0 {
		return nil, "room_id, group_id and subject_id are required"
	}

	start, end, err := utils.ParseTimeSlot(req.TimeSlot)
	if err != nil {
		return nil, err.Error()
	}

	var room models.Room
	if err := database.DB.First(&room, req.RoomID).Error; err != nil {
		return nil, "Room not found"
	}
	var group models.Group
	if err := database.DB.First(&group, req.GroupID).Error; err != nil {
		return nil, "Group not found"
	}
	var subject models.Subject
	if err := database.DB.First(&subject, req.SubjectID).Error; err != nil {
		return nil, "Subject not found"
	}

	return &models.ScheduleEntry{
		RoomID:    req.RoomID,
		Day:       day,
		StartTime: start,
		EndTime:   end,
		GroupID:   req.GroupID,
		SubjectID: req.SubjectID,
	}, ""
}
