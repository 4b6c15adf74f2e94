package services

import (
	"fmt"
	"sort"

	"attendtrack_go/database"
	"attendtrack_go/models"
)

// Conflict reports a group booked into more than one room for the same
// day/time-slot. Conflicts are advisory: the schedule CRUD does not block
// them, the dashboard surfaces them.
type Conflict struct {
	Day       models.Weekday `json:"day"`
	StartTime string         `json:"start_time"`
	GroupID   uint           `json:"group_id"`
	GroupName string         `json:"group_name,omitempty"`
	RoomIDs   []uint         `json:"rooms"`
}

// DetectConflicts scans schedule entries for groups double-booked in the same
// (day, start) slot. Pure and deterministic: same input, same output order.
func DetectConflicts(entries []models.ScheduleEntry) []Conflict {
	type slotKey struct {
		day     models.Weekday
		start   string
		groupID uint
	}

	roomsByKey := make(map[slotKey][]uint)
	groupNames := make(map[uint]string)
	for _, e := range entries {
		key := slotKey{day: e.Day, start: e.StartTime, groupID: e.GroupID}
		roomsByKey[key] = append(roomsByKey[key], e.RoomID)
		if e.Group.Name != "" {
			groupNames[e.GroupID] = e.Group.Name
		}
	}

	var conflicts []Conflict
	for key, rooms := range roomsByKey {
		distinct := dedupeRooms(rooms)
		if len(distinct) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Day:       key.day,
			StartTime: key.start,
			GroupID:   key.groupID,
			GroupName: groupNames[key.groupID],
			RoomIDs:   distinct,
		})
	}

	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Day != b.Day {
			return dayOrder(a.Day) < dayOrder(b.Day)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.GroupID < b.GroupID
	})
	return conflicts
}

// ListConflicts loads the full schedule and runs the detector over it.
// Read-only; safe to call concurrently with any schedule mutation.
func ListConflicts() ([]Conflict, error) {
	var entries []models.ScheduleEntry
	if err := database.DB.Preload("Group").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load schedule entries: %w", err)
	}
	return DetectConflicts(entries), nil
}

func dedupeRooms(rooms []uint) []uint {
	seen := make(map[uint]bool, len(rooms))
	var out []uint
	for _, r := range rooms {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dayOrder(d models.Weekday) int {
	switch d {
	case models.WeekdayMon:
		return 0
	case models.WeekdayTue:
		return 1
	case models.WeekdayWed:
		return 2
	case models.WeekdayThu:
		return 3
	case models.WeekdayFri:
		return 4
	case models.WeekdaySat:
		return 5
	default:
		return 6
	}
}
