package controllers

import (
	"errors"
	"time"

	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DeviceController serves the ESP32 readers. Responses carry machine codes
// so firmware can branch without parsing prose.
type DeviceController struct {
	Sessions   *services.SessionService
	Attendance *services.AttendanceService
}

func NewDeviceController(sessions *services.SessionService, attendance *services.AttendanceService) *DeviceController {
	return &DeviceController{Sessions: sessions, Attendance: attendance}
}

// ScanRequest represents a credential scan from a reader
type ScanRequest struct {
	ESP32ID    string `json:"esp32_id" validate:"required"`
	Credential string `json:"credential" validate:"required"`
	Method     string `json:"method" validate:"required"` // rfid, fingerprint, manual
}

// HeartbeatRequest represents a reader liveness ping
type HeartbeatRequest struct {
	ESP32ID string `json:"esp32_id" validate:"required"`
}

// SessionSignalRequest identifies the reader issuing a start or stop signal
type SessionSignalRequest struct {
	ESP32ID string `json:"esp32_id" validate:"required"`
}

// CheckSession tells a reader which session it should serve right now:
// the room's active session, or a scheduled one inside the start window.
func (dc *DeviceController) CheckSession(c *fiber.Ctx) error {
	esp32ID := c.Query("esp32_id")
	if esp32ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "BAD_REQUEST",
			"error": "esp32_id is required",
		})
	}

	room, err := dc.Attendance.RoomByESP32(esp32ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "ROOM_NOT_FOUND",
			"error": "No room registered for this device",
		})
	}
	dc.Attendance.TouchRoom(room)

	if !room.Active {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":  "ROOM_INACTIVE",
			"error": "Room is inactive",
		})
	}

	session, err := dc.Sessions.SessionForDevice(room.ID, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSession) {
			return c.JSON(fiber.Map{
				"code":    "NO_SESSION",
				"session": nil,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":  "SERVER_ERROR",
			"error": "Failed to resolve session",
		})
	}

	return c.JSON(fiber.Map{
		"code": "OK",
		"session": fiber.Map{
			"id":         session.ID,
			"status":     session.Status,
			"date":       session.Date,
			"start_time": session.StartTime,
			"end_time":   session.EndTime,
			"group_id":   session.GroupID,
		},
	})
}

// Scan records one attendance scan
func (dc *DeviceController) Scan(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "BAD_REQUEST",
			"error": "Invalid request body",
		})
	}
	if req.ESP32ID == "" || req.Credential == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "BAD_REQUEST",
			"error": "esp32_id and credential are required",
		})
	}

	result, err := dc.Attendance.RecordScan(req.ESP32ID, req.Credential, models.AttendanceMethod(req.Method))
	if err != nil {
		return dc.scanError(c, err)
	}

	middleware.LogActivity(c, "SCAN", "attendance", result.Record.SessionID, fiber.Map{
		"esp32_id": req.ESP32ID,
		"student":  result.Student.StudentCode,
		"method":   result.Record.Method,
	})

	return c.JSON(fiber.Map{
		"code":    "OK",
		"student": result.Student.FullName(),
		"record": fiber.Map{
			"session_id": result.Record.SessionID,
			"student_id": result.Record.StudentID,
			"status":     result.Record.Status,
			"method":     result.Record.Method,
			"scan_time":  result.Record.ScanTime,
		},
	})
}

// StartSession activates a scheduled session when the reader signals the
// class has begun. The session must belong to the reader's own room.
func (dc *DeviceController) StartSession(c *fiber.Ctx) error {
	return dc.signalTransition(c, "START", dc.Sessions.StartSession)
}

// StopSession closes the session when the reader signals the class is over.
func (dc *DeviceController) StopSession(c *fiber.Ctx) error {
	return dc.signalTransition(c, "STOP", dc.Sessions.StopSession)
}

func (dc *DeviceController) signalTransition(c *fiber.Ctx, action string, transition func(string) (*models.Session, error)) error {
	var req SessionSignalRequest
	if err := c.BodyParser(&req); err != nil || req.ESP32ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "BAD_REQUEST",
			"error": "esp32_id is required",
		})
	}

	room, err := dc.Attendance.RoomByESP32(req.ESP32ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "ROOM_NOT_FOUND",
			"error": "No room registered for this device",
		})
	}
	dc.Attendance.TouchRoom(room)

	if !room.Active {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":  "ROOM_INACTIVE",
			"error": "Room is inactive",
		})
	}

	session, err := dc.Sessions.GetSession(c.Params("id"))
	if err != nil || session.RoomID != room.ID {
		// A session in another room is reported the same as a missing one,
		// so a misconfigured reader learns nothing about other rooms.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "SESSION_NOT_FOUND",
			"error": "No such session for this room",
		})
	}

	session, err = transition(session.ID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":  "INVALID_TRANSITION",
				"error": "Session cannot make that transition",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":  "SERVER_ERROR",
			"error": "Session update failed",
		})
	}

	middleware.LogActivity(c, action, "sessions", session.ID, fiber.Map{
		"esp32_id": req.ESP32ID,
	})

	return c.JSON(fiber.Map{
		"code": "OK",
		"session": fiber.Map{
			"id":         session.ID,
			"status":     session.Status,
			"date":       session.Date,
			"start_time": session.StartTime,
			"end_time":   session.EndTime,
			"group_id":   session.GroupID,
		},
	})
}

// Heartbeat marks a reader as alive without recording anything
func (dc *DeviceController) Heartbeat(c *fiber.Ctx) error {
	var req HeartbeatRequest
	if err := c.BodyParser(&req); err != nil || req.ESP32ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "BAD_REQUEST",
			"error": "esp32_id is required",
		})
	}

	room, err := dc.Attendance.RoomByESP32(req.ESP32ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "ROOM_NOT_FOUND",
			"error": "No room registered for this device",
		})
	}
	dc.Attendance.TouchRoom(room)

	return c.JSON(fiber.Map{
		"code": "OK",
		"room": room.RoomName,
	})
}

func (dc *DeviceController) scanError(c *fiber.Ctx, err error) error {
	logrus.WithError(err).WithField("ip", c.IP()).Warn("Scan discarded")
	switch {
	case errors.Is(err, services.ErrInvalidMethod):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "INVALID_METHOD",
			"error": "method must be rfid, fingerprint or manual",
		})
	case errors.Is(err, services.ErrRoomNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "ROOM_NOT_FOUND",
			"error": "No room registered for this device",
		})
	case errors.Is(err, services.ErrRoomInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":  "ROOM_INACTIVE",
			"error": "Room is inactive",
		})
	case errors.Is(err, services.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "STUDENT_NOT_FOUND",
			"error": "No student matches this credential",
		})
	case errors.Is(err, services.ErrNoActiveSession):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":  "NO_ACTIVE_SESSION",
			"error": "No active session in this room",
		})
	case errors.Is(err, services.ErrGroupMismatch):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":  "GROUP_MISMATCH",
			"error": "Student does not belong to the session's group",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":  "SERVER_ERROR",
			"error": "Failed to record scan",
		})
	}
}
