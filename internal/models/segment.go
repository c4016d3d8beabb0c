package models

import (
	"fmt"
	"strings"
	"time"
)

// Segment is one planned time block of a task.
type Segment struct {
	ID              int64     `json:"id"`
	TaskID          string    `json:"task_id"`
	Start           time.Time `json:"start_local"`
	End             time.Time `json:"end_local"`
	PlannedMinutes  int       `json:"planned_minutes"`
	Note            string    `json:"note,omitempty"`
	CalendarEntryID string    `json:"calendar_entry_id,omitempty"`
}

// ValidationHint describes why the segment cannot be synced, or returns
// an empty string for a valid segment.
func (s Segment) ValidationHint() string {
	switch {
	case s.Start.IsZero():
		return "date must be set"
	case s.End.IsZero():
		return "end time must be set"
	case !s.End.After(s.Start):
		return "start must be before end"
	default:
		return ""
	}
}

// Recompute derives the planned minutes from the current range. An
// inverted range yields a negative value.
func (s *Segment) Recompute() {
	if s.Start.IsZero() || s.End.IsZero() {
		s.PlannedMinutes = 0
		return
	}
	s.PlannedMinutes = int(s.End.Sub(s.Start) / time.Minute)
}

// MoveToDate keeps the clock times of the segment and replaces its date.
func (s *Segment) MoveToDate(day time.Time) {
	length := s.End.Sub(s.Start)
	s.Start = withDate(s.Start, day)
	if s.End.IsZero() {
		s.Recompute()
		return
	}
	if length > 0 {
		s.End = s.Start.Add(length)
	} else {
		s.End = withDate(s.End, day)
	}
	s.Recompute()
}

// SetStartClock sets the start time of day from "HH:MM" text.
func (s *Segment) SetStartClock(text string) error {
	h, m, err := parseClock(text)
	if err != nil {
		return err
	}
	base := s.Start
	if base.IsZero() {
		base = s.End
	}
	s.Start = time.Date(base.Year(), base.Month(), base.Day(), h, m, 0, 0, locationOf(base))
	s.Recompute()
	return nil
}

// SetEndClock sets the end time of day from "HH:MM" text on the start date.
func (s *Segment) SetEndClock(text string) error {
	h, m, err := parseClock(text)
	if err != nil {
		return err
	}
	base := s.Start
	if base.IsZero() {
		base = s.End
	}
	s.End = time.Date(base.Year(), base.Month(), base.Day(), h, m, 0, 0, locationOf(base))
	s.Recompute()
	return nil
}

func withDate(t, day time.Time) time.Time {
	if t.IsZero() {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, locationOf(day))
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func locationOf(t time.Time) *time.Location {
	if t.IsZero() {
		return time.Local
	}
	return t.Location()
}

func parseClock(text string) (int, int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(text))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: expected HH:MM", text)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
