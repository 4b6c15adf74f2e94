package controllers

import (
	"errors"
	"time"

	"attendtrack_go/config"
	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/services"

	"github.com/gofiber/fiber/v2"
)

// SessionController drives the session lifecycle from the dashboard.
type SessionController struct {
	Sessions *services.SessionService
	Absences *services.AbsenceService
}

func NewSessionController(sessions *services.SessionService, absences *services.AbsenceService) *SessionController {
	return &SessionController{Sessions: sessions, Absences: absences}
}

// GenerateRequest represents the session generation request body
type GenerateRequest struct {
	Date string `json:"date"` // "2006-01-02", defaults to today
}

// Generate materializes sessions for a date from the weekly schedule
func (sc *SessionController) Generate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	date := time.Now().In(config.AppConfig.SessionLocation)
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, config.AppConfig.SessionLocation)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be formatted as YYYY-MM-DD",
			})
		}
		date = parsed
	}

	created, skipped, err := sc.Sessions.GenerateSessions(date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate sessions",
		})
	}

	middleware.LogActivity(c, "GENERATE", "sessions", "", fiber.Map{
		"date": date.Format("2006-01-02"), "created": created, "skipped": skipped,
	})

	return c.JSON(fiber.Map{
		"message": "Sessions generated",
		"date":    date.Format("2006-01-02"),
		"created": created,
		"skipped": skipped,
	})
}

// GetToday returns today's sessions, optionally filtered by status
func (sc *SessionController) GetToday(c *fiber.Ctx) error {
	var status models.SessionStatus
	if s := c.Query("status"); s != "" {
		status = models.SessionStatus(s)
		if !status.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "status must be scheduled, active or closed",
			})
		}
	}

	sessions, err := sc.Sessions.TodaySessions(time.Now(), status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sessions",
		})
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns a single session by its deterministic id
func (sc *SessionController) GetSession(c *fiber.Ctx) error {
	session, err := sc.Sessions.GetSession(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(fiber.Map{"session": session})
}

// Start activates a scheduled session
func (sc *SessionController) Start(c *fiber.Ctx) error {
	session, err := sc.Sessions.StartSession(c.Params("id"))
	if err != nil {
		return sc.transitionError(c, err)
	}

	middleware.LogActivity(c, "START", "sessions", session.ID, nil)

	return c.JSON(fiber.Map{
		"message": "Session started",
		"session": session,
	})
}

// Stop closes an active session; absence marking follows via the event bus
func (sc *SessionController) Stop(c *fiber.Ctx) error {
	session, err := sc.Sessions.StopSession(c.Params("id"))
	if err != nil {
		return sc.transitionError(c, err)
	}

	middleware.LogActivity(c, "STOP", "sessions", session.ID, nil)

	return c.JSON(fiber.Map{
		"message": "Session stopped",
		"session": session,
	})
}

// AutoClose sweeps active sessions whose end time has passed
func (sc *SessionController) AutoClose(c *fiber.Ctx) error {
	closed, err := sc.Sessions.AutoCloseSessions(time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Auto-close sweep failed",
		})
	}

	middleware.LogActivity(c, "AUTO_CLOSE", "sessions", "", fiber.Map{"closed": closed})

	return c.JSON(fiber.Map{
		"message": "Auto-close sweep finished",
		"closed":  closed,
	})
}

// MarkAbsences re-runs absence marking for a closed session.
// Normally the event bus does this on close; the endpoint covers reruns
// after late student registration or a failed subscriber.
func (sc *SessionController) MarkAbsences(c *fiber.Ctx) error {
	marked, err := sc.Absences.MarkAbsences(c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		if errors.Is(err, services.ErrSessionNotClosed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Absences can only be marked on a closed session",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark absences",
		})
	}

	middleware.LogActivity(c, "MARK_ABSENCES", "sessions", c.Params("id"), fiber.Map{"marked": marked})

	return c.JSON(fiber.Map{
		"message": "Absences marked",
		"marked":  marked,
	})
}

func (sc *SessionController) transitionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	case errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Session cannot make that transition",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Session update failed",
		})
	}
}
