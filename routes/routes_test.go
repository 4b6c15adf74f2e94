package routes

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"attendtrack_go/config"
	"attendtrack_go/services"
	"attendtrack_go/services/events"
	"attendtrack_go/services/websocket"
)

// newTestApp wires the full route table against in-memory services. None of
// the requests below get past auth or body validation, so no database is
// needed.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	config.AppConfig = &config.Config{
		JWTSecret:       "test-secret",
		DeviceAPIKey:    "reader-key",
		DeviceLookAhead: 15 * time.Minute,
		SessionTimezone: "Asia/Bangkok",
		SessionLocation: loc,
	}

	bus := events.NewBus()
	sessions := services.NewSessionService(bus)
	attendance := services.NewAttendanceService(sessions, bus)
	absences := services.NewAbsenceService(services.NewLineMessagingService())

	app := fiber.New()
	SetupRoutes(app, Deps{
		Hub:        websocket.NewHub(),
		Sessions:   sessions,
		Attendance: attendance,
		Absences:   absences,
	})
	return app
}

func TestDeviceSessionSignalsUseDeviceKey(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/api/devices/sessions/2026-01-12_1_0800/start",
		"/api/devices/sessions/2026-01-12_1_0800/stop",
	} {
		// No key at all.
		req := httptest.NewRequest("POST", path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("POST %s without key: expected 401, got %d", path, resp.StatusCode)
		}

		// Wrong key.
		req = httptest.NewRequest("POST", path, nil)
		req.Header.Set("X-Device-Key", "wrong-key")
		resp, err = app.Test(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("POST %s with wrong key: expected 401, got %d", path, resp.StatusCode)
		}

		// Correct key reaches the handler: an empty body is the handler's
		// own 400, not the router's 404 or the middleware's 401.
		req = httptest.NewRequest("POST", path, nil)
		req.Header.Set("X-Device-Key", "reader-key")
		resp, err = app.Test(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("POST %s with device key: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestDashboardTransitionsStillRequireJWT(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/api/sessions/2026-01-12_1_0800/start",
		"/api/sessions/2026-01-12_1_0800/stop",
	} {
		// A device key must not open the dashboard routes.
		req := httptest.NewRequest("POST", path, nil)
		req.Header.Set("X-Device-Key", "reader-key")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("POST %s: expected 401 without JWT, got %d", path, resp.StatusCode)
		}
	}
}
