package services

import (
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
	"attendtrack_go/utils"
)

// SessionService owns the session lifecycle: generating dated sessions from
// the weekly schedule, moving them scheduled -> active -> closed, and
// answering "which session should this room's device run right now".
// All time-window logic lives here and nowhere else.
type SessionService struct {
	db        *gorm.DB
	bus       *events.Bus
	lookAhead time.Duration
	grace     time.Duration
	loc       *time.Location
}

// NewSessionService creates a session service wired to the event bus.
func NewSessionService(bus *events.Bus) *SessionService {
	return &SessionService{
		db:        database.DB,
		bus:       bus,
		lookAhead: config.AppConfig.DeviceLookAhead,
		grace:     config.AppConfig.AutoCloseGrace,
		loc:       config.AppConfig.SessionLocation,
	}
}

// PlanSessions computes the sessions a generation run should create for one
// date: one per schedule entry on that weekday whose deterministic id is not
// already present. Pure so idempotence is checkable without a database.
func PlanSessions(entries []models.ScheduleEntry, date string, existing map[string]bool) []models.Session {
	var planned []models.Session
	for _, e := range entries {
		id := models.SessionID(date, e.RoomID, e.StartTime)
		if existing[id] {
			continue
		}
		planned = append(planned, models.Session{
			ID:        id,
			Date:      date,
			RoomID:    e.RoomID,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			GroupID:   e.GroupID,
			SubjectID: e.SubjectID,
			Status:    models.SessionScheduled,
		})
	}
	return planned
}

// GenerationDay resolves an instant to the calendar date and day code in the
// given zone. Both come from the same converted instant, so a caller passing
// an unconverted time near midnight can never pair a date with the wrong
// weekday.
func GenerationDay(t time.Time, loc *time.Location) (models.Weekday, string) {
	t = t.In(loc)
	return models.WeekdayOf(t), t.Format("2006-01-02")
}

// GenerateSessions materializes sessions for the given date.
// Returns the number created and the number skipped as already existing.
// Safe to run repeatedly or concurrently: ids are deterministic and inserts
// ignore duplicate keys.
func (s *SessionService) GenerateSessions(date time.Time) (created int, skipped int, err error) {
	day, dateStr := GenerationDay(date, s.loc)
	if day == "" {
		return 0, 0, nil // no slots on Sunday
	}

	var entries []models.ScheduleEntry
	if err := s.db.Where("day = ?", day).Find(&entries).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load schedule entries: %w", err)
	}

	var existingIDs []string
	if err := s.db.Model(&models.Session{}).Where("date = ?", dateStr).Pluck("id", &existingIDs).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load existing sessions: %w", err)
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	planned := PlanSessions(entries, dateStr, existing)
	skipped = len(entries) - len(planned)

	for i := range planned {
		// A concurrent run may have inserted the same id between the read
		// and this write; the duplicate insert is a counted no-op.
		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&planned[i])
		if res.Error != nil {
			logrus.WithError(res.Error).WithField("session_id", planned[i].ID).Error("Failed to create session")
			continue
		}
		if res.RowsAffected == 0 {
			skipped++
			continue
		}
		created++
	}

	logrus.WithFields(logrus.Fields{
		"date":    dateStr,
		"created": created,
		"skipped": skipped,
	}).Info("Session generation run completed")
	return created, skipped, nil
}

// GetSession loads one session with its relationships.
func (s *SessionService) GetSession(id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Preload("Room").Preload("Group").Preload("Subject").First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// StartSession moves a scheduled session to active.
// Starting an already-active session is a no-op (device retries are normal);
// starting a closed session is an invalid transition.
func (s *SessionService) StartSession(id string) (*models.Session, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionActive {
		return session, nil
	}
	if !session.Status.CanTransition(models.SessionActive) {
		return nil, fmt.Errorf("%w: %s -> active", ErrInvalidTransition, session.Status)
	}

	now := time.Now().In(s.loc)
	res := s.db.Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.SessionScheduled).
		Updates(map[string]interface{}{"status": models.SessionActive, "started_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race; reload and report whatever state won.
		return s.GetSession(id)
	}

	session.Status = models.SessionActive
	session.StartedAt = &now
	s.bus.Publish(events.Event{Type: events.TypeSessionActivated, Session: session})
	logrus.WithField("session_id", id).Info("Session activated")
	return session, nil
}

// StopSession moves an active session to closed. Closing an already-closed
// session is a no-op; closing one that was never activated is invalid, a
// session whose window lapses without activation stays scheduled as history.
func (s *SessionService) StopSession(id string) (*models.Session, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionClosed {
		return session, nil
	}
	if !session.Status.CanTransition(models.SessionClosed) {
		return nil, fmt.Errorf("%w: %s -> closed", ErrInvalidTransition, session.Status)
	}

	now := time.Now().In(s.loc)
	res := s.db.Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.SessionActive).
		Updates(map[string]interface{}{"status": models.SessionClosed, "closed_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return s.GetSession(id)
	}

	session.Status = models.SessionClosed
	session.ClosedAt = &now
	s.bus.Publish(events.Event{Type: events.TypeSessionClosed, Session: session})
	logrus.WithField("session_id", id).Info("Session closed")
	return session, nil
}

// AutoCloseSessions closes every active session whose end time (plus the
// configured grace) has passed. Re-entrant: each close is a guarded single
// update, and failures on one session never stop the sweep.
func (s *SessionService) AutoCloseSessions(now time.Time) (int, error) {
	now = now.In(s.loc)

	var active []models.Session
	if err := s.db.Where("status = ?", models.SessionActive).Find(&active).Error; err != nil {
		return 0, fmt.Errorf("failed to load active sessions: %w", err)
	}

	closed := 0
	for i := range active {
		sess := active[i]
		end, err := SessionEnd(sess, s.loc)
		if err != nil {
			logrus.WithError(err).WithField("session_id", sess.ID).Error("Skipping session with bad time window")
			continue
		}
		if now.Before(end.Add(s.grace)) {
			continue
		}
		if _, err := s.StopSession(sess.ID); err != nil {
			logrus.WithError(err).WithField("session_id", sess.ID).Error("Auto-close failed")
			continue
		}
		closed++
	}

	if closed > 0 {
		logrus.WithField("closed", closed).Info("Auto-close sweep completed")
	}
	return closed, nil
}

// ActiveSessionForRoom returns the room's currently active session for today.
func (s *SessionService) ActiveSessionForRoom(roomID uint, now time.Time) (*models.Session, error) {
	now = now.In(s.loc)
	var session models.Session
	err := s.db.Preload("Group").Preload("Subject").
		Where("room_id = ? AND date = ? AND status = ?", roomID, now.Format("2006-01-02"), models.SessionActive).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return &session, nil
}

// SessionForDevice answers a polling reader: the room's active session if one
// is running, otherwise the scheduled session whose window contains now or
// starts within the look-ahead (so the device activates slightly before the
// bell instead of missing the first scans).
func (s *SessionService) SessionForDevice(roomID uint, now time.Time) (*models.Session, error) {
	if session, err := s.ActiveSessionForRoom(roomID, now); err == nil {
		return session, nil
	} else if !errors.Is(err, ErrNoActiveSession) {
		return nil, err
	}

	now = now.In(s.loc)
	var scheduled []models.Session
	err := s.db.Preload("Group").Preload("Subject").
		Where("room_id = ? AND date = ? AND status = ?", roomID, now.Format("2006-01-02"), models.SessionScheduled).
		Order("start_time").
		Find(&scheduled).Error
	if err != nil {
		return nil, err
	}

	for i := range scheduled {
		ok, err := Startable(scheduled[i], now, s.lookAhead, s.loc)
		if err != nil {
			logrus.WithError(err).WithField("session_id", scheduled[i].ID).Error("Skipping session with bad time window")
			continue
		}
		if ok {
			return &scheduled[i], nil
		}
	}
	return nil, ErrNoActiveSession
}

// TodaySessions lists today's sessions, optionally filtered by status.
func (s *SessionService) TodaySessions(now time.Time, status models.SessionStatus) ([]models.Session, error) {
	now = now.In(s.loc)
	query := s.db.Preload("Room").Preload("Group").Preload("Subject").
		Where("date = ?", now.Format("2006-01-02"))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.Session
	if err := query.Order("room_id, start_time").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionWindow resolves a session's concrete start and end instants.
func SessionWindow(sess models.Session, loc *time.Location) (time.Time, time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", sess.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid session date %q: %w", sess.Date, err)
	}
	sh, sm, err := utils.ParseHourMinute(sess.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := utils.ParseHourMinute(sess.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), sh, sm, 0, 0, loc)
	end := time.Date(date.Year(), date.Month(), date.Day(), eh, em, 0, 0, loc)
	return start, end, nil
}

// SessionEnd resolves a session's concrete end instant.
func SessionEnd(sess models.Session, loc *time.Location) (time.Time, error) {
	_, end, err := SessionWindow(sess, loc)
	return end, err
}

// Startable reports whether a scheduled session should be offered to a
// polling device at the given instant: now is inside [start, end), or within
// lookAhead before start.
func Startable(sess models.Session, now time.Time, lookAhead time.Duration, loc *time.Location) (bool, error) {
	start, end, err := SessionWindow(sess, loc)
	if err != nil {
		return false, err
	}
	if !now.Before(end) {
		return false, nil
	}
	return !now.Before(start.Add(-lookAhead)), nil
}
