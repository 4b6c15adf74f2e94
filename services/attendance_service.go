package services

import (
	"context"
	"errors"
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

// AttendanceService turns raw reader scans into attendance records.
// Every write is an upsert keyed by (session_id, student_id), so replayed or
// duplicated scans update the timestamp instead of duplicating rows.
type AttendanceService struct {
	db       *gorm.DB
	sessions *SessionService
	bus      *events.Bus
	loc      *time.Location
}

// ScanResult is the successful outcome of a recorded scan.
type ScanResult struct {
	Student *models.Student          `json:"student"`
	Session *models.Session          `json:"session"`
	Record  *models.AttendanceRecord `json:"record"`
}

// NewAttendanceService creates an attendance recorder.
func NewAttendanceService(sessions *SessionService, bus *events.Bus) *AttendanceService {
	return &AttendanceService{
		db:       database.DB,
		sessions: sessions,
		bus:      bus,
		loc:      config.AppConfig.SessionLocation,
	}
}

// RecordScan attributes one credential scan from a room's reader to the
// session currently active in that room. Validation failures come back as the
// typed errors in errors.go; each is a discarded scan, not a server fault.
func (s *AttendanceService) RecordScan(esp32ID, credential string, method models.AttendanceMethod) (*ScanResult, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	room, err := s.resolveRoom(esp32ID)
	if err != nil {
		return nil, err
	}

	// Any traffic from a known reader counts as liveness, including scans
	// that fail later validation.
	s.TouchRoom(room)

	if !room.Active {
		return nil, fmt.Errorf("%w: room %s", ErrRoomInactive, room.RoomName)
	}

	student, err := s.resolveStudent(credential, method)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.loc)
	session, err := s.sessions.ActiveSessionForRoom(room.ID, now)
	if err != nil {
		return nil, err
	}

	if student.GroupID != session.GroupID {
		return nil, fmt.Errorf("%w: student %s is in group %d, session %s belongs to group %d",
			ErrGroupMismatch, student.StudentCode, student.GroupID, session.ID, session.GroupID)
	}

	record := models.AttendanceRecord{
		SessionID:  session.ID,
		StudentID:  student.ID,
		Status:     models.AttendancePresent,
		Method:     method,
		ScanTime:   &now,
		RecordedAt: now,
	}
	// Re-scans overwrite the same row: timestamp moves, no duplicate appears.
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "method", "scan_time", "recorded_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save attendance record: %w", err)
	}

	s.bus.Publish(events.Event{
		Type:    events.TypeAttendanceRecorded,
		Session: session,
		Record:  &record,
		Student: student,
	})
	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"student":    student.StudentCode,
		"method":     method,
	}).Info("Attendance recorded")

	return &ScanResult{Student: student, Session: session, Record: &record}, nil
}

// RoomByESP32 resolves the room behind a device id.
func (s *AttendanceService) RoomByESP32(esp32ID string) (*models.Room, error) {
	return s.resolveRoom(esp32ID)
}

// TouchRoom updates the room's liveness marker in the database and, when
// Redis is available, in a short-lived cache key the dashboard polls.
func (s *AttendanceService) TouchRoom(room *models.Room) {
	now := time.Now().In(s.loc)
	if err := s.db.Model(&models.Room{}).Where("id = ?", room.ID).Update("last_seen", now).Error; err != nil {
		logrus.WithError(err).WithField("room_id", room.ID).Warn("Failed to update room last_seen")
	}
	room.LastSeen = &now

	if rc := database.GetRedisClient(); rc != nil {
		key := fmt.Sprintf("room:lastseen:%s", room.ESP32ID)
		if err := rc.Set(context.Background(), key, now.Format(time.RFC3339), config.AppConfig.DeviceOfflineAfter).Err(); err != nil {
			logrus.WithError(err).Warn("Failed to cache room liveness")
		}
	}
}

func (s *AttendanceService) resolveRoom(esp32ID string) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("esp32_id = ?", esp32ID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: esp32 %s", ErrRoomNotFound, esp32ID)
		}
		return nil, err
	}
	return &room, nil
}

func (s *AttendanceService) resolveStudent(credential string, method models.AttendanceMethod) (*models.Student, error) {
	query := s.db.Where("active = ?", true)
	switch method {
	case models.MethodRFID:
		query = query.Where("rfid_tag = ?", credential)
	case models.MethodFingerprint:
		query = query.Where("fingerprint_id = ?", credential)
	case models.MethodManual:
		query = query.Where("student_code = ?", credential)
	}

	var student models.Student
	if err := query.First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s credential", ErrStudentNotFound, method)
		}
		return nil, err
	}
	return &student, nil
}

// SessionRecords lists the attendance rows for one session.
func (s *AttendanceService) SessionRecords(sessionID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := s.db.Preload("Student").
		Where("session_id = ?", sessionID).
		Order("status, recorded_at").
		Find(&records).Error
	return records, err
}
