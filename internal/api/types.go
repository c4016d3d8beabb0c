package api

import (
	"time"

	"tasktool/internal/models"
	"tasktool/internal/reminder"
	"tasktool/internal/report"
	"tasktool/internal/settings"
	"tasktool/internal/workday"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// TaskCreateRequest defines the payload for creating a task.
type TaskCreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TicketURL   string     `json:"ticket_url,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	Tags        string     `json:"tags,omitempty"`
}

// QuickAddRequest carries one line of quick-add text.
type QuickAddRequest struct {
	Input string `json:"input"`
}

// TaskUpdateRequest defines the payload for patching a task. Nil fields
// are left unchanged; clear flags reset a field.
type TaskUpdateRequest struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	TicketURL     *string    `json:"ticket_url,omitempty"`
	Start         *time.Time `json:"start,omitempty"`
	ClearStart    bool       `json:"clear_start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	ClearEnd      bool       `json:"clear_end,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Priority      *int       `json:"priority,omitempty"`
	ClearPriority bool       `json:"clear_priority,omitempty"`
	Tags          *string    `json:"tags,omitempty"`
}

// TaskDetailResponse is a task with its time logs and segments.
type TaskDetailResponse struct {
	models.Task
	TrackedSeconds int64            `json:"tracked_seconds"`
	TimeLogs       []models.TimeLog `json:"time_logs"`
	Segments       []models.Segment `json:"segments"`
}

// TicketMinutesRequest adjusts the booked ticket minutes of a task.
type TicketMinutesRequest struct {
	Delta int `json:"delta"`
}

// ElapsedResponse reports the tracked time of a task.
type ElapsedResponse struct {
	TaskID  string `json:"task_id"`
	Seconds int64  `json:"seconds"`
	Clock   string `json:"clock"`
}

// SegmentCreateRequest defines the payload for a new segment.
type SegmentCreateRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Note  string    `json:"note,omitempty"`
}

// SegmentUpdateRequest patches a segment. Clock fields take HH:MM text.
type SegmentUpdateRequest struct {
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`
	Date       *string    `json:"date,omitempty"`
	StartClock *string    `json:"start_clock,omitempty"`
	EndClock   *string    `json:"end_clock,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

// SyncAllResponse summarizes a bulk segment sync.
type SyncAllResponse struct {
	TaskID string `json:"task_id"`
	Total  int    `json:"total"`
	Failed int    `json:"failed"`
}

// CalendarStatusResponse describes the calendar connection.
type CalendarStatusResponse struct {
	Backend   string `json:"backend"`
	Enabled   bool   `json:"enabled"`
	OK        bool   `json:"ok"`
	Message   string `json:"message,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// StampRequest optionally sets an explicit time on a come/go stamp.
type StampRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// BreakStartRequest opens a break.
type BreakStartRequest struct {
	Note string `json:"note,omitempty"`
}

// BreakEndResponse reports whether an open break was closed.
type BreakEndResponse struct {
	Ended bool `json:"ended"`
}

// BreakInput is one break of a manual day.
type BreakInput struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	Note  string     `json:"note,omitempty"`
}

// ManualDayRequest replaces a day's stamps and breaks.
type ManualDayRequest struct {
	Come   *time.Time   `json:"come,omitempty"`
	Go     *time.Time   `json:"go,omitempty"`
	Breaks []BreakInput `json:"breaks"`
}

// DayMarkersRequest sets the type and flags of a day.
type DayMarkersRequest struct {
	DayType string `json:"day_type"`
	IsBr    bool   `json:"is_br"`
	IsHo    bool   `json:"is_ho"`
}

// DayResponse is a day with its breaks.
type DayResponse = workday.DayRecord

// DaySummaryResponse is the reconciled view of one day.
type DaySummaryResponse = report.DaySummary

// TodayResponse is today's summary with month-to-date overtime.
type TodayResponse = report.TodayReport

// WeekResponse is the seven days of a week.
type WeekResponse = report.WeekReport

// MonthResponse is a monthly report.
type MonthResponse = report.MonthReport

// SettingsResponse is the settings record.
type SettingsResponse = settings.AppSettings

// SettingUpdateRequest sets one settings key.
type SettingUpdateRequest struct {
	Value string `json:"value"`
}

// ReminderResponse is one pending reminder.
type ReminderResponse = reminder.Reminder

// ReminderActionResponse reports whether a reminder was affected.
type ReminderActionResponse struct {
	TaskID string `json:"task_id"`
	OK     bool   `json:"ok"`
}
