package utils

import "testing"

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "simple time",
			input:      "08:30",
			expHour:    8,
			expMinutes: 30,
		},
		{
			name:       "unpadded",
			input:      "8:5",
			expHour:    8,
			expMinutes: 5,
		},
		{
			name:       "with surrounding space",
			input:      " 14:00 ",
			expHour:    14,
			expMinutes: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := ParseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	for _, input := range []string{"invalid", "25:00", "10:75", "1000"} {
		if _, _, err := ParseHourMinute(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expStart string
		expEnd   string
		wantErr  bool
	}{
		{
			name:     "standard block",
			input:    "08:00-10:00",
			expStart: "08:00",
			expEnd:   "10:00",
		},
		{
			name:     "unpadded normalizes",
			input:    "8:0-10:0",
			expStart: "08:00",
			expEnd:   "10:00",
		},
		{
			name:    "end before start",
			input:   "10:00-08:00",
			wantErr: true,
		},
		{
			name:    "zero length",
			input:   "08:00-08:00",
			wantErr: true,
		},
		{
			name:    "missing separator",
			input:   "08:00",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := ParseTimeSlot(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tc.expStart || end != tc.expEnd {
				t.Fatalf("expected %s-%s, got %s-%s", tc.expStart, tc.expEnd, start, end)
			}
		})
	}
}
