package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus defines allowed lifecycle states for tasks.
type TaskStatus string

const (
	StatusPlanned   TaskStatus = "Planned"
	StatusRunning   TaskStatus = "Running"
	StatusDone      TaskStatus = "Done"
	StatusCancelled TaskStatus = "Cancelled"
)

// DayType classifies a work day. AM and UL days have no target time.
type DayType string

const (
	DayNormal DayType = "Normal"
	DayAM     DayType = "AM"
	DayUL     DayType = "UL"
)

const (
	// DayKeyLayout is the storage key layout of work days.
	DayKeyLayout = "2006-01-02"
	// LocalLayout is the storage layout of wall-clock timestamps.
	LocalLayout = "2006-01-02T15:04:05"
	// MonthLayout identifies a calendar month.
	MonthLayout = "2006-01"

	DefaultBreakNote = "pause"
)

var validTaskStatuses = map[TaskStatus]struct{}{
	StatusPlanned:   {},
	StatusRunning:   {},
	StatusDone:      {},
	StatusCancelled: {},
}

var validDayTypes = map[DayType]struct{}{
	DayNormal: {},
	DayAM:     {},
	DayUL:     {},
}

func IsValidTaskStatus(status TaskStatus) bool {
	_, ok := validTaskStatuses[status]
	return ok
}

func IsValidDayType(dayType DayType) bool {
	_, ok := validDayTypes[dayType]
	return ok
}

// ParseTaskStatus matches case-insensitively and returns the canonical value.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	for status := range validTaskStatuses {
		if strings.EqualFold(string(status), value) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s", value)
}

// ParseDayType matches case-insensitively; empty input means Normal.
func ParseDayType(raw string) (DayType, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return DayNormal, nil
	}
	for dayType := range validDayTypes {
		if strings.EqualFold(string(dayType), value) {
			return dayType, nil
		}
	}
	return "", fmt.Errorf("invalid day type: %s", value)
}

// IsOpen reports whether a task still counts as pending work.
func (s TaskStatus) IsOpen() bool {
	switch s {
	case StatusDone, StatusCancelled:
		return false
	default:
		return true
	}
}

// ZeroesTarget reports whether the day type suppresses the weekday target.
func (d DayType) ZeroesTarget() bool {
	switch d {
	case DayAM, DayUL:
		return true
	default:
		return false
	}
}

// DayKey formats t as a work day key in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a work day key into local midnight.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, strings.TrimSpace(key), time.Local)
}

// WeekdayTargets holds target minutes indexed by time.Weekday.
type WeekdayTargets [7]int

// For returns the target minutes of the given weekday.
func (w WeekdayTargets) For(day time.Weekday) int {
	if day < time.Sunday || day > time.Saturday {
		return 0
	}
	return w[day]
}
