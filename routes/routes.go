package routes

import (
	"attendtrack_go/controllers"
	"attendtrack_go/handlers"
	"attendtrack_go/middleware"
	"attendtrack_go/services"
	"attendtrack_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// Deps carries the shared services the route handlers need.
type Deps struct {
	Hub        *websocket.Hub
	Sessions   *services.SessionService
	Attendance *services.AttendanceService
	Absences   *services.AbsenceService
	Archive    *services.LogArchiveService
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, deps Deps) {
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	roomController := &controllers.RoomController{}
	groupController := &controllers.GroupController{}
	subjectController := &controllers.SubjectController{}
	studentController := &controllers.StudentController{}
	scheduleController := &controllers.ScheduleController{}
	scheduleImportController := &controllers.ScheduleImportController{}
	notificationController := &controllers.NotificationController{}
	healthController := &controllers.HealthController{}
	sessionController := controllers.NewSessionController(deps.Sessions, deps.Absences)
	deviceController := controllers.NewDeviceController(deps.Sessions, deps.Attendance)
	attendanceController := controllers.NewAttendanceController(deps.Attendance)
	logController := controllers.NewLogController(deps.Archive)
	wsController := controllers.NewWebSocketController(deps.Hub)
	lineWebhook := handlers.NewLineWebhookHandler()

	api := app.Group("/api")

	// Public routes
	api.Get("/health", healthController.GetHealthStatus)
	api.Post("/line/webhook", lineWebhook.Handle)

	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Device routes: shared-key auth, no JWT
	devices := api.Group("/devices", middleware.DeviceAuthMiddleware())
	devices.Get("/check-session", deviceController.CheckSession)
	devices.Post("/scan", deviceController.Scan)
	devices.Post("/heartbeat", deviceController.Heartbeat)
	devices.Post("/sessions/:id/start", deviceController.StartSession)
	devices.Post("/sessions/:id/stop", deviceController.StopSession)

	// Protected routes
	protected := api.Group("/", middleware.JWTMiddleware(), middleware.LogActivityMiddleware())

	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/auth/logout", authController.Logout)

	users := protected.Group("/users")
	users.Get("/", middleware.RequireOwnerOrAdmin(), userController.GetUsers)
	users.Get("/:id", middleware.RequireOwnerOrAdmin(), userController.GetUser)
	users.Post("/", middleware.RequireOwnerOrAdmin(), userController.CreateUser)
	users.Put("/:id", middleware.RequireOwnerOrAdmin(), userController.UpdateUser)
	users.Delete("/:id", middleware.RequireOwnerOrAdmin(), userController.DeleteUser)

	rooms := protected.Group("/rooms")
	rooms.Get("/", middleware.RequireTeacherOrAbove(), roomController.GetRooms)
	rooms.Get("/:id", middleware.RequireTeacherOrAbove(), roomController.GetRoom)
	rooms.Post("/", middleware.RequireOwnerOrAdmin(), roomController.CreateRoom)
	rooms.Put("/:id", middleware.RequireOwnerOrAdmin(), roomController.UpdateRoom)
	rooms.Delete("/:id", middleware.RequireOwnerOrAdmin(), roomController.DeleteRoom)

	groups := protected.Group("/groups")
	groups.Get("/", middleware.RequireTeacherOrAbove(), groupController.GetGroups)
	groups.Get("/:id", middleware.RequireTeacherOrAbove(), groupController.GetGroup)
	groups.Post("/", middleware.RequireOwnerOrAdmin(), groupController.CreateGroup)
	groups.Put("/:id", middleware.RequireOwnerOrAdmin(), groupController.UpdateGroup)
	groups.Delete("/:id", middleware.RequireOwnerOrAdmin(), groupController.DeleteGroup)

	subjects := protected.Group("/subjects")
	subjects.Get("/", middleware.RequireTeacherOrAbove(), subjectController.GetSubjects)
	subjects.Post("/", middleware.RequireOwnerOrAdmin(), subjectController.CreateSubject)
	subjects.Put("/:id", middleware.RequireOwnerOrAdmin(), subjectController.UpdateSubject)
	subjects.Delete("/:id", middleware.RequireOwnerOrAdmin(), subjectController.DeleteSubject)

	students := protected.Group("/students")
	students.Get("/", middleware.RequireTeacherOrAbove(), studentController.GetStudents)
	students.Get("/:id", middleware.RequireTeacherOrAbove(), studentController.GetStudent)
	students.Get("/:id/attendance", middleware.RequireTeacherOrAbove(), attendanceController.GetStudentHistory)
	students.Post("/", middleware.RequireOwnerOrAdmin(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequireOwnerOrAdmin(), studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequireOwnerOrAdmin(), studentController.DeleteStudent)

	schedules := protected.Group("/schedules")
	schedules.Get("/", middleware.RequireTeacherOrAbove(), scheduleController.GetSchedules)
	schedules.Get("/conflicts", middleware.RequireTeacherOrAbove(), scheduleController.GetConflicts)
	schedules.Post("/", middleware.RequireOwnerOrAdmin(), scheduleController.CreateSchedule)
	schedules.Post("/copy-day", middleware.RequireOwnerOrAdmin(), scheduleController.CopyDay)
	schedules.Post("/import", middleware.RequireOwnerOrAdmin(), scheduleImportController.Import)
	schedules.Put("/:id", middleware.RequireOwnerOrAdmin(), scheduleController.UpdateSchedule)
	schedules.Delete("/:id", middleware.RequireOwnerOrAdmin(), scheduleController.DeleteSchedule)

	sessions := protected.Group("/sessions")
	sessions.Get("/today", middleware.RequireTeacherOrAbove(), sessionController.GetToday)
	sessions.Get("/:id", middleware.RequireTeacherOrAbove(), sessionController.GetSession)
	sessions.Get("/:id/attendance", middleware.RequireTeacherOrAbove(), attendanceController.GetSessionRecords)
	sessions.Post("/generate", middleware.RequireOwnerOrAdmin(), sessionController.Generate)
	sessions.Post("/auto-close", middleware.RequireOwnerOrAdmin(), sessionController.AutoClose)
	sessions.Post("/:id/start", middleware.RequireTeacherOrAbove(), sessionController.Start)
	sessions.Post("/:id/stop", middleware.RequireTeacherOrAbove(), sessionController.Stop)
	sessions.Post("/:id/mark-absences", middleware.RequireOwnerOrAdmin(), sessionController.MarkAbsences)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Put("/:id/read", notificationController.MarkAsRead)
	notifications.Put("/read-all", notificationController.MarkAllAsRead)

	logs := protected.Group("/logs", middleware.RequireOwnerOrAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Post("/flush", logController.FlushLogs)

	// WebSocket endpoint (JWT via ?token= query parameter)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
	protected.Get("/ws/stats", middleware.RequireOwnerOrAdmin(), wsController.GetWebSocketStats)
}
