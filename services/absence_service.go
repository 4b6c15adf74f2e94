package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendtrack_go/config"
	"attendtrack_go/database"
	"attendtrack_go/models"
	"attendtrack_go/services/events"
)

// AbsenceService sweeps a closed session's group: every member without a
// present record gets exactly one absent record. Together with the recorder's
// upserts this guarantees one record per (session, student), never more.
type AbsenceService struct {
	db   *gorm.DB
	line *LineMessagingService
	loc  *time.Location
}

// NewAbsenceService creates an absence marker.
func NewAbsenceService(line *LineMessagingService) *AbsenceService {
	return &AbsenceService{
		db:   database.DB,
		line: line,
		loc:  config.AppConfig.SessionLocation,
	}
}

// SubscribeTo wires the marker to the event bus so every session close
// triggers the sweep without the state machine knowing about absences.
func (s *AbsenceService) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(func(evt events.Event) {
		if evt.Session == nil {
			return
		}
		if _, err := s.MarkAbsences(evt.Session.ID); err != nil {
			logrus.WithError(err).WithField("session_id", evt.Session.ID).Error("Absence marking failed")
		}
	}, events.TypeSessionClosed)
}

// MissingStudents returns the group members with no attendance record yet.
// Pure: given the same members and records it always picks the same students,
// and a second run over the updated records picks nobody.
func MissingStudents(members []models.Student, existing []models.AttendanceRecord) []models.Student {
	recorded := make(map[uint]bool, len(existing))
	for _, r := range existing {
		recorded[r.StudentID] = true
	}

	var missing []models.Student
	for _, m := range members {
		if !recorded[m.ID] {
			missing = append(missing, m)
		}
	}
	return missing
}

// SweepAllowed reports whether absence marking may run for a session in the
// given state. Sweeping before close would mark the whole group absent while
// students are still scanning in.
func SweepAllowed(status models.SessionStatus) bool {
	return status == models.SessionClosed
}

// MarkAbsences writes absent records for every member of the session's group
// who has no record. Only closed sessions are swept. Idempotent: present
// records are never touched, and the insert ignores rows that appeared since
// the read. Individual failures are logged and skipped; the aggregate count
// is returned.
func (s *AbsenceService) MarkAbsences(sessionID string) (int, error) {
	var session models.Session
	if err := s.db.Preload("Group").Preload("Subject").First(&session, "id = ?", sessionID).Error; err != nil {
		return 0, ErrSessionNotFound
	}
	if !SweepAllowed(session.Status) {
		return 0, fmt.Errorf("%w: %s is %s", ErrSessionNotClosed, sessionID, session.Status)
	}

	var members []models.Student
	if err := s.db.Where("group_id = ? AND active = ?", session.GroupID, true).Find(&members).Error; err != nil {
		return 0, fmt.Errorf("failed to load group members: %w", err)
	}

	var existing []models.AttendanceRecord
	if err := s.db.Where("session_id = ?", sessionID).Find(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to load attendance records: %w", err)
	}

	now := time.Now().In(s.loc)
	marked := 0
	var absentees []models.Student
	for _, student := range MissingStudents(members, existing) {
		record := models.AttendanceRecord{
			SessionID:  sessionID,
			StudentID:  student.ID,
			Status:     models.AttendanceAbsent,
			Method:     models.MethodManual,
			RecordedAt: now,
		}
		// DoNothing on conflict: a scan that raced the sweep wins, so a
		// present record can never be downgraded to absent.
		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
		if res.Error != nil {
			logrus.WithError(res.Error).WithFields(logrus.Fields{
				"session_id": sessionID,
				"student":    student.StudentCode,
			}).Error("Failed to mark absence")
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		marked++
		absentees = append(absentees, student)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"marked":     marked,
		"group":      session.Group.Name,
	}).Info("Absence marking completed")

	if marked > 0 {
		s.notifyAbsences(session, absentees)
	}
	return marked, nil
}

// notifyAbsences creates a dashboard notification for admins and, when LINE
// is configured, pushes the absentee summary to the configured group chat.
func (s *AbsenceService) notifyAbsences(session models.Session, absentees []models.Student) {
	message := fmt.Sprintf("Session %s (%s %s-%s): %d absent", session.ID, session.Date,
		session.StartTime, session.EndTime, len(absentees))
	for _, a := range absentees {
		message += fmt.Sprintf("\n- %s (%s)", a.FullName(), a.StudentCode)
	}

	var admins []models.User
	if err := s.db.Where("role IN ?", []string{"admin", "owner"}).Find(&admins).Error; err == nil {
		for _, admin := range admins {
			notification := models.Notification{
				UserID:  admin.ID,
				Title:   "Absences Recorded",
				Message: message,
				Type:    "warning",
			}
			if err := s.db.Create(&notification).Error; err != nil {
				logrus.WithError(err).WithField("user_id", admin.ID).Error("Failed to create absence notification")
			}
		}
	}

	if s.line != nil && config.AppConfig.LineGroupID != "" {
		if err := s.line.SendToGroup(config.AppConfig.LineGroupID, message); err != nil {
			logrus.WithError(err).Warn("Failed to push absence summary to LINE")
		}
	}
}
