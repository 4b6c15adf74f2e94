package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Weekday is the schedule day code. Classes run Monday through Saturday.
type Weekday string

const (
	WeekdayMon Weekday = "mon"
	WeekdayTue Weekday = "tue"
	WeekdayWed Weekday = "wed"
	WeekdayThu Weekday = "thu"
	WeekdayFri Weekday = "fri"
	WeekdaySat Weekday = "sat"
)

// Valid returns true when the day is a supported schedule day.
func (d Weekday) Valid() bool {
	switch d {
	case WeekdayMon, WeekdayTue, WeekdayWed, WeekdayThu, WeekdayFri, WeekdaySat:
		return true
	default:
		return false
	}
}

// WeekdayOf maps a calendar date to the schedule day code.
// Sunday has no time slots and maps to the empty value.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return WeekdayMon
	case time.Tuesday:
		return WeekdayTue
	case time.Wednesday:
		return WeekdayWed
	case time.Thursday:
		return WeekdayThu
	case time.Friday:
		return WeekdayFri
	case time.Saturday:
		return WeekdaySat
	default:
		return ""
	}
}

// SessionStatus is the lifecycle state of a class session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionActive    SessionStatus = "active"
	SessionClosed    SessionStatus = "closed"
)

// Valid returns true when the status is a supported value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionActive, SessionClosed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the status may move to the target state.
// Sessions only move forward: scheduled -> active -> closed.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	switch s {
	case SessionScheduled:
		return to == SessionActive
	case SessionActive:
		return to == SessionClosed
	default:
		return false
	}
}

// AttendanceStatus marks a student present or absent for a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// AttendanceMethod is how the credential was captured at the reader.
type AttendanceMethod string

const (
	MethodRFID        AttendanceMethod = "rfid"
	MethodFingerprint AttendanceMethod = "fingerprint"
	MethodManual      AttendanceMethod = "manual"
)

func (m AttendanceMethod) Valid() bool {
	switch m {
	case MethodRFID, MethodFingerprint, MethodManual:
		return true
	default:
		return false
	}
}

// User model (dashboard accounts)
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255"`
	Role     string `json:"role" gorm:"size:50;not null;default:'teacher';type:enum('owner','admin','teacher')"` // owner, admin, teacher
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`
}

// Room model. One reader device per room, identified by its ESP32 chip id.
// A room takes part in session activity only while Active is true.
type Room struct {
	BaseModel
	RoomName string     `json:"room_name" gorm:"size:100;not null"`
	ESP32ID  string     `json:"esp32_id" gorm:"size:100;not null;uniqueIndex"`
	Capacity int        `json:"capacity"`
	Active   bool       `json:"active" gorm:"default:true"`
	LastSeen *time.Time `json:"last_seen"`
}

// Group model (a class of students that moves between rooms together)
type Group struct {
	BaseModel
	Name   string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Level  string `json:"level" gorm:"size:50"`
	Active bool   `json:"active" gorm:"default:true"`

	// Relationships
	Students []Student `json:"students,omitempty" gorm:"foreignKey:GroupID"`
}

// Subject model
type Subject struct {
	BaseModel
	Name string `json:"name" gorm:"size:255;not null"`
	Code string `json:"code" gorm:"size:50;uniqueIndex"`
}

// Student model. RFIDTag and FingerprintID are the scan credentials;
// group membership is the sole authorization check for attendance.
type Student struct {
	BaseModel
	StudentCode   string `json:"student_code" gorm:"size:50;not null;uniqueIndex"`
	FirstName     string `json:"first_name" gorm:"size:100"`
	LastName      string `json:"last_name" gorm:"size:100"`
	RFIDTag       string `json:"rfid_tag" gorm:"size:100;index"`
	FingerprintID string `json:"fingerprint_id" gorm:"size:100;index"`
	GroupID       uint   `json:"group_id" gorm:"not null;index"`
	ParentPhone   string `json:"parent_phone" gorm:"size:20"`
	Active        bool   `json:"active" gorm:"default:true"`

	// Relationships
	Group Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// FullName returns the display name used in device replies.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ScheduleEntry is a recurring weekly slot: which group studies which subject
// in which room, on which day, in which fixed time block.
// Identity is (room_id, day, start_time). The CRUD layer keeps slots within a
// room non-overlapping, but the same group may still be booked into two rooms
// at once; that is surfaced by the conflict detector, not blocked here.
type ScheduleEntry struct {
	BaseModel
	RoomID    uint    `json:"room_id" gorm:"not null;uniqueIndex:idx_room_day_start"`
	Day       Weekday `json:"day" gorm:"size:3;not null;uniqueIndex:idx_room_day_start"`
	StartTime string  `json:"start_time" gorm:"size:5;not null;uniqueIndex:idx_room_day_start"` // "08:00"
	EndTime   string  `json:"end_time" gorm:"size:5;not null"`                                  // "10:00"
	GroupID   uint    `json:"group_id" gorm:"not null;index"`
	SubjectID uint    `json:"subject_id" gorm:"not null"`

	// Relationships
	Room    Room    `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Subject Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

// TimeSlot renders the entry's block as "HH:MM-HH:MM".
func (e ScheduleEntry) TimeSlot() string {
	return e.StartTime + "-" + e.EndTime
}

// Session is one dated occurrence of a schedule entry.
// The primary key is deterministic (date, room and start time with the colon
// stripped) so regenerating a day can never produce duplicates.
type Session struct {
	ID        string        `json:"id" gorm:"primaryKey;size:40"`
	Date      string        `json:"date" gorm:"size:10;not null;index"` // "2006-01-02"
	RoomID    uint          `json:"room_id" gorm:"not null;index"`
	StartTime string        `json:"start_time" gorm:"size:5;not null"`
	EndTime   string        `json:"end_time" gorm:"size:5;not null"`
	GroupID   uint          `json:"group_id" gorm:"not null;index"`
	SubjectID uint          `json:"subject_id" gorm:"not null"`
	Status    SessionStatus `json:"status" gorm:"size:20;not null;default:'scheduled';type:enum('scheduled','active','closed')"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	StartedAt *time.Time    `json:"started_at"`
	ClosedAt  *time.Time    `json:"closed_at"`

	// Relationships
	Room    Room    `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Subject Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

// SessionID builds the deterministic session primary key.
func SessionID(date string, roomID uint, startTime string) string {
	return fmt.Sprintf("%s_%d_%s", date, roomID, strings.ReplaceAll(startTime, ":", ""))
}

// AttendanceRecord stores at most one row per (session, student).
// Writes are upserts keyed on that pair, so scan replays are safe.
type AttendanceRecord struct {
	BaseModel
	SessionID  string           `json:"session_id" gorm:"size:40;not null;uniqueIndex:idx_session_student"`
	StudentID  uint             `json:"student_id" gorm:"not null;uniqueIndex:idx_session_student"`
	Status     AttendanceStatus `json:"status" gorm:"size:20;not null;type:enum('present','absent')"`
	Method     AttendanceMethod `json:"method" gorm:"size:20;not null;type:enum('rfid','fingerprint','manual')"`
	ScanTime   *time.Time       `json:"scan_time"`
	RecordedAt time.Time        `json:"recorded_at"`

	// Relationships
	Session Session `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model (dashboard advisories: conflicts, absences, device issues)
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived activity logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
