package services

import (
	"testing"

	"attendtrack_go/models"
)

func student(id uint, code string) models.Student {
	s := models.Student{StudentCode: code, Active: true}
	s.ID = id
	return s
}

func record(studentID uint, status models.AttendanceStatus) models.AttendanceRecord {
	return models.AttendanceRecord{StudentID: studentID, Status: status}
}

func TestMissingStudents(t *testing.T) {
	members := []models.Student{
		student(1, "S001"),
		student(2, "S002"),
		student(3, "S003"),
	}

	tests := []struct {
		name     string
		existing []models.AttendanceRecord
		wantIDs  []uint
	}{
		{
			name:     "nobody scanned",
			existing: nil,
			wantIDs:  []uint{1, 2, 3},
		},
		{
			name: "one present",
			existing: []models.AttendanceRecord{
				record(2, models.AttendancePresent),
			},
			wantIDs: []uint{1, 3},
		},
		{
			name: "everyone accounted for",
			existing: []models.AttendanceRecord{
				record(1, models.AttendancePresent),
				record(2, models.AttendancePresent),
				record(3, models.AttendanceAbsent),
			},
			wantIDs: nil,
		},
		{
			name: "existing absent row still counts",
			existing: []models.AttendanceRecord{
				record(1, models.AttendanceAbsent),
			},
			wantIDs: []uint{2, 3},
		},
		{
			name: "record for a non-member is ignored",
			existing: []models.AttendanceRecord{
				record(99, models.AttendancePresent),
			},
			wantIDs: []uint{1, 2, 3},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			missing := MissingStudents(members, tc.existing)
			var gotIDs []uint
			for _, s := range missing {
				gotIDs = append(gotIDs, s.ID)
			}
			if len(gotIDs) != len(tc.wantIDs) {
				t.Fatalf("expected missing %v, got %v", tc.wantIDs, gotIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tc.wantIDs[i] {
					t.Fatalf("expected missing %v, got %v", tc.wantIDs, gotIDs)
				}
			}
		})
	}
}

func TestMissingStudentsNoMembers(t *testing.T) {
	if got := MissingStudents(nil, nil); len(got) != 0 {
		t.Fatalf("expected no missing students for empty group, got %d", len(got))
	}
}

func TestSweepAllowedOnlyWhenClosed(t *testing.T) {
	cases := []struct {
		status models.SessionStatus
		want   bool
	}{
		{models.SessionScheduled, false},
		{models.SessionActive, false},
		{models.SessionClosed, true},
	}
	for _, tc := range cases {
		if got := SweepAllowed(tc.status); got != tc.want {
			t.Fatalf("SweepAllowed(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
