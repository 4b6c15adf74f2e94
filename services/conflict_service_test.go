package services

import (
	"reflect"
	"testing"

	"attendtrack_go/models"
)

func entry(roomID uint, day models.Weekday, start string, groupID uint) models.ScheduleEntry {
	return models.ScheduleEntry{
		RoomID:    roomID,
		Day:       day,
		StartTime: start,
		EndTime:   "10:00",
		GroupID:   groupID,
		SubjectID: 1,
	}
}

func TestDetectConflicts(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.ScheduleEntry
		want    []Conflict
	}{
		{
			name: "group in two rooms same slot",
			entries: []models.ScheduleEntry{
				entry(1, models.WeekdayMon, "08:00", 10),
				entry(2, models.WeekdayMon, "08:00", 10),
			},
			want: []Conflict{
				{Day: models.WeekdayMon, StartTime: "08:00", GroupID: 10, RoomIDs: []uint{1, 2}},
			},
		},
		{
			name: "no overlap",
			entries: []models.ScheduleEntry{
				entry(1, models.WeekdayMon, "08:00", 10),
				entry(2, models.WeekdayMon, "10:00", 10),
				entry(2, models.WeekdayMon, "08:00", 11),
			},
			want: nil,
		},
		{
			name: "same slot different day is fine",
			entries: []models.ScheduleEntry{
				entry(1, models.WeekdayMon, "08:00", 10),
				entry(2, models.WeekdayTue, "08:00", 10),
			},
			want: nil,
		},
		{
			name: "three rooms one group",
			entries: []models.ScheduleEntry{
				entry(3, models.WeekdayFri, "14:00", 7),
				entry(1, models.WeekdayFri, "14:00", 7),
				entry(2, models.WeekdayFri, "14:00", 7),
			},
			want: []Conflict{
				{Day: models.WeekdayFri, StartTime: "14:00", GroupID: 7, RoomIDs: []uint{1, 2, 3}},
			},
		},
		{
			name:    "empty schedule",
			entries: nil,
			want:    nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := DetectConflicts(tc.entries)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestDetectConflictsDeterministicOrder(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry(2, models.WeekdayTue, "10:00", 5),
		entry(1, models.WeekdayTue, "10:00", 5),
		entry(2, models.WeekdayMon, "08:00", 4),
		entry(1, models.WeekdayMon, "08:00", 4),
	}

	first := DetectConflicts(entries)
	second := DetectConflicts(entries)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("detector output not deterministic: %+v vs %+v", first, second)
	}

	if len(first) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(first))
	}
	if first[0].Day != models.WeekdayMon || first[1].Day != models.WeekdayTue {
		t.Fatalf("expected conflicts ordered by day, got %+v", first)
	}
}
