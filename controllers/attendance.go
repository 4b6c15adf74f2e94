package controllers

import (
	"attendtrack_go/database"
	"attendtrack_go/models"
	"attendtrack_go/services"

	"github.com/gofiber/fiber/v2"
)

// AttendanceController exposes attendance records to the dashboard.
type AttendanceController struct {
	Attendance *services.AttendanceService
}

func NewAttendanceController(attendance *services.AttendanceService) *AttendanceController {
	return &AttendanceController{Attendance: attendance}
}

// GetSessionRecords returns every attendance record for a session with a
// present/absent summary
func (ac *AttendanceController) GetSessionRecords(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	var session models.Session
	if err := database.DB.Preload("Group").Preload("Subject").Preload("Room").
		First(&session, "id = ?", sessionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	records, err := ac.Attendance.SessionRecords(sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch attendance records",
		})
	}

	present, absent := 0, 0
	for _, r := range records {
		switch r.Status {
		case models.AttendancePresent:
			present++
		case models.AttendanceAbsent:
			absent++
		}
	}

	var memberCount int64
	database.DB.Model(&models.Student{}).
		Where("group_id = ? AND active = ?", session.GroupID, true).
		Count(&memberCount)

	return c.JSON(fiber.Map{
		"session": session,
		"records": records,
		"summary": fiber.Map{
			"present":    present,
			"absent":     absent,
			"recorded":   len(records),
			"group_size": memberCount,
		},
	})
}

// GetStudentHistory returns a student's attendance records, newest first
func (ac *AttendanceController) GetStudentHistory(c *fiber.Ctx) error {
	var student models.Student
	if err := database.DB.First(&student, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	var records []models.AttendanceRecord
	if err := database.DB.Preload("Session").
		Where("student_id = ?", student.ID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch attendance history",
		})
	}

	return c.JSON(fiber.Map{
		"student": student,
		"records": records,
	})
}
