package services

import (
	"testing"
	"time"

	"attendtrack_go/models"
)

func TestSessionIDDeterministic(t *testing.T) {
	a := models.SessionID("2026-01-12", 3, "08:00")
	b := models.SessionID("2026-01-12", 3, "08:00")
	if a != b {
		t.Fatalf("same inputs produced different ids: %q vs %q", a, b)
	}
	if a != "2026-01-12_3_0800" {
		t.Fatalf("unexpected id layout: %q", a)
	}
	if c := models.SessionID("2026-01-12", 3, "09:00"); c == a {
		t.Fatalf("different start time produced identical id %q", c)
	}
	if c := models.SessionID("2026-01-12", 4, "08:00"); c == a {
		t.Fatalf("different room produced identical id %q", c)
	}
}

func TestPlanSessionsSkipsExisting(t *testing.T) {
	entries := []models.ScheduleEntry{
		{RoomID: 1, Day: models.WeekdayMon, StartTime: "08:00", EndTime: "09:30", GroupID: 10, SubjectID: 1},
		{RoomID: 2, Day: models.WeekdayMon, StartTime: "08:00", EndTime: "09:30", GroupID: 11, SubjectID: 2},
	}

	first := PlanSessions(entries, "2026-01-12", map[string]bool{})
	if len(first) != 2 {
		t.Fatalf("expected 2 planned sessions, got %d", len(first))
	}
	for _, s := range first {
		if s.Status != models.SessionScheduled {
			t.Fatalf("new session should start scheduled, got %q", s.Status)
		}
	}

	existing := map[string]bool{first[0].ID: true, first[1].ID: true}
	second := PlanSessions(entries, "2026-01-12", existing)
	if len(second) != 0 {
		t.Fatalf("rerun should plan nothing, got %d", len(second))
	}

	partial := map[string]bool{first[0].ID: true}
	third := PlanSessions(entries, "2026-01-12", partial)
	if len(third) != 1 || third[0].ID != first[1].ID {
		t.Fatalf("partial rerun should plan only the missing session, got %+v", third)
	}
}

func TestGenerationDayConvertsToZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 18:00 UTC Sunday is already 01:00 Monday in Bangkok; day and date
	// must both come from the Bangkok side of midnight.
	utcSundayEvening := time.Date(2026, 1, 11, 18, 0, 0, 0, time.UTC)
	day, date := GenerationDay(utcSundayEvening, loc)
	if day != models.WeekdayMon {
		t.Fatalf("expected mon, got %q", day)
	}
	if date != "2026-01-12" {
		t.Fatalf("expected 2026-01-12, got %q", date)
	}

	// A Bangkok Sunday stays Sunday: no day code, no sessions.
	bangkokSundayNoon := time.Date(2026, 1, 11, 12, 0, 0, 0, loc)
	day, date = GenerationDay(bangkokSundayNoon, loc)
	if day != "" {
		t.Fatalf("expected empty day code for Sunday, got %q", day)
	}
	if date != "2026-01-11" {
		t.Fatalf("expected 2026-01-11, got %q", date)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from models.SessionStatus
		to   models.SessionStatus
		ok   bool
	}{
		{models.SessionScheduled, models.SessionActive, true},
		{models.SessionActive, models.SessionClosed, true},
		{models.SessionScheduled, models.SessionClosed, false},
		{models.SessionClosed, models.SessionActive, false},
		{models.SessionClosed, models.SessionScheduled, false},
		{models.SessionActive, models.SessionScheduled, false},
		{models.SessionActive, models.SessionActive, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestStartable(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	sess := models.Session{
		ID:        models.SessionID("2026-01-12", 1, "08:00"),
		Date:      "2026-01-12",
		RoomID:    1,
		StartTime: "08:00",
		EndTime:   "09:30",
		Status:    models.SessionScheduled,
	}
	lookAhead := 15 * time.Minute

	at := func(hm string) time.Time {
		tm, err := time.ParseInLocation("2006-01-02 15:04", "2026-01-12 "+hm, loc)
		if err != nil {
			t.Fatalf("parse %q: %v", hm, err)
		}
		return tm
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before window", at("07:30"), false},
		{"one minute before lookahead", at("07:44"), false},
		{"lookahead boundary", at("07:45"), true},
		{"at start", at("08:00"), true},
		{"mid session", at("09:00"), true},
		{"at end", at("09:30"), false},
		{"after end", at("10:00"), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Startable(sess, tc.now, lookAhead, loc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("at %s expected %v, got %v", tc.now.Format("15:04"), tc.want, got)
			}
		})
	}
}

func TestSessionWindowRejectsBadTimes(t *testing.T) {
	loc := time.UTC
	bad := []models.Session{
		{Date: "12/01/2026", StartTime: "08:00", EndTime: "09:30"},
		{Date: "2026-01-12", StartTime: "8am", EndTime: "09:30"},
		{Date: "2026-01-12", StartTime: "08:00", EndTime: "25:00"},
	}
	for _, sess := range bad {
		if _, _, err := SessionWindow(sess, loc); err == nil {
			t.Errorf("expected error for %+v", sess)
		}
	}
}
