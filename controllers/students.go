package controllers

import (
	"attendtrack_go/database"
	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// StudentRequest represents the student create/update request body
type StudentRequest struct {
	StudentCode   string `json:"student_code" validate:"required"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	RFIDTag       string `json:"rfid_tag"`
	FingerprintID string `json:"fingerprint_id"`
	GroupID       uint   `json:"group_id" validate:"required"`
	ParentPhone   string `json:"parent_phone"`
	Active        *bool  `json:"active"`
}

// GetStudents returns students, optionally filtered by group
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	query := database.DB.Preload("Group").Order("student_code")
	if groupID := c.Query("group_id"); groupID != "" {
		query = query.Where("group_id = ?", groupID)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}
	return c.JSON(fiber.Map{"students": students})
}

// GetStudent returns a single student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	var student models.Student
	if err := database.DB.Preload("Group").First(&student, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}
	return c.JSON(fiber.Map{"student": student})
}

// CreateStudent registers a new student
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.StudentCode == "" || req.GroupID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "student_code and group_id are required",
		})
	}

	var group models.Group
	if err := database.DB.First(&group, req.GroupID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	student := models.Student{
		StudentCode:   utils.SanitizeString(req.StudentCode),
		FirstName:     utils.SanitizeString(req.FirstName),
		LastName:      utils.SanitizeString(req.LastName),
		RFIDTag:       utils.SanitizeString(req.RFIDTag),
		FingerprintID: utils.SanitizeString(req.FingerprintID),
		GroupID:       req.GroupID,
		ParentPhone:   utils.SanitizeString(req.ParentPhone),
		Active:        true,
	}
	if req.Active != nil {
		student.Active = *req.Active
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Failed to create student (student_code may already exist)",
		})
	}

	middleware.LogActivity(c, "CREATE", "students", "", fiber.Map{"student_code": student.StudentCode})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates an existing student
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	var student models.Student
	if err := database.DB.First(&student, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.StudentCode != "" {
		updates["student_code"] = utils.SanitizeString(req.StudentCode)
	}
	if req.FirstName != "" {
		updates["first_name"] = utils.SanitizeString(req.FirstName)
	}
	if req.LastName != "" {
		updates["last_name"] = utils.SanitizeString(req.LastName)
	}
	if req.RFIDTag != "" {
		updates["rfid_tag"] = utils.SanitizeString(req.RFIDTag)
	}
	if req.FingerprintID != "" {
		updates["fingerprint_id"] = utils.SanitizeString(req.FingerprintID)
	}
	if req.ParentPhone != "" {
		updates["parent_phone"] = utils.SanitizeString(req.ParentPhone)
	}
	if req.GroupID != 0 && req.GroupID != student.GroupID {
		var group models.Group
		if err := database.DB.First(&group, req.GroupID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Group not found"})
		}
		updates["group_id"] = req.GroupID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update student",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent soft-deletes a student
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	var student models.Student
	if err := database.DB.First(&student, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	if err := database.DB.Delete(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete student",
		})
	}

	return c.JSON(fiber.Map{"message": "Student deleted successfully"})
}
