package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Time-slot helpers. Slots are fixed-length blocks written as "HH:MM-HH:MM";
// individual times are always zero-padded 24h "HH:MM".

// ParseHourMinute parses a "HH:MM" string into hour and minute components.
func ParseHourMinute(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}

// MinutesOfDay converts "HH:MM" to minutes since midnight.
func MinutesOfDay(s string) (int, error) {
	hour, minute, err := ParseHourMinute(s)
	if err != nil {
		return 0, err
	}
	return hour*60 + minute, nil
}

// NormalizeHourMinute re-renders a parsed time as zero-padded "HH:MM",
// so "8:0" and "08:00" store identically.
func NormalizeHourMinute(s string) (string, error) {
	hour, minute, err := ParseHourMinute(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ParseTimeSlot splits a "HH:MM-HH:MM" slot into normalized start and end times.
func ParseTimeSlot(slot string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(slot), "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid time slot %q: expected HH:MM-HH:MM", slot)
	}

	start, err := NormalizeHourMinute(parts[0])
	if err != nil {
		return "", "", err
	}
	end, err := NormalizeHourMinute(parts[1])
	if err != nil {
		return "", "", err
	}

	startMin, _ := MinutesOfDay(start)
	endMin, _ := MinutesOfDay(end)
	if endMin <= startMin {
		return "", "", fmt.Errorf("invalid time slot %q: end must be after start", slot)
	}

	return start, end, nil
}
