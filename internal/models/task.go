package models

import "time"

// Task is a unit of tracked work.
type Task struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	TicketURL           string     `json:"ticket_url,omitempty"`
	StartLocal          *time.Time `json:"start_local,omitempty"`
	EndLocal            *time.Time `json:"end_local,omitempty"`
	Status              TaskStatus `json:"status"`
	Priority            *int       `json:"priority,omitempty"`
	Tags                string     `json:"tags,omitempty"`
	CalendarEntryID     string     `json:"calendar_entry_id,omitempty"`
	TicketMinutesBooked int        `json:"ticket_minutes_booked"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TicketSecondsBooked mirrors the booked minutes at second resolution.
func (t Task) TicketSecondsBooked() int {
	return t.TicketMinutesBooked * 60
}

// IsOnDay reports whether the planned range of the task touches the day
// starting at dayStart. Tasks without a start are never on a day.
func (t Task) IsOnDay(dayStart time.Time) bool {
	if t.StartLocal == nil {
		return false
	}
	dayEnd := dayStart.AddDate(0, 0, 1)
	end := *t.StartLocal
	if t.EndLocal != nil {
		end = *t.EndLocal
	}
	return t.StartLocal.Before(dayEnd) && !end.Before(dayStart)
}

// TimeLog is one measured work session of a task. A nil End marks the
// session as still running.
type TimeLog struct {
	ID     int64      `json:"id"`
	TaskID string     `json:"task_id"`
	Start  time.Time  `json:"start"`
	End    *time.Time `json:"end,omitempty"`
	Note   string     `json:"note,omitempty"`
}

// Duration returns the elapsed time of the log at now. Inverted or empty
// intervals count as zero.
func (l TimeLog) Duration(now time.Time) time.Duration {
	end := now
	if l.End != nil {
		end = *l.End
	}
	if !end.After(l.Start) {
		return 0
	}
	return end.Sub(l.Start)
}
