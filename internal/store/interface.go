package store

import (
	"context"
	"time"

	"tasktool/internal/models"
)

// TaskStore abstracts task, time log and segment storage.
type TaskStore interface {
	TaskExists(ctx context.Context, id string) (bool, error)
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	SetTaskStatus(ctx context.Context, id string, status models.TaskStatus, at time.Time) error
	SetTaskEntryID(ctx context.Context, id, entryID string, at time.Time) error
	AddTicketMinutes(ctx context.Context, id string, delta int, at time.Time) (int, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	ListTasksOverlapping(ctx context.Context, from, to time.Time) ([]models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	StartTask(ctx context.Context, taskID string, at time.Time) error
	CloseTimeLog(ctx context.Context, taskID string, at time.Time, note string) (bool, error)
	ListTimeLogs(ctx context.Context, taskID string) ([]models.TimeLog, error)

	CreateSegment(ctx context.Context, seg *models.Segment) error
	GetSegment(ctx context.Context, id int64) (*models.Segment, error)
	UpdateSegment(ctx context.Context, seg *models.Segment) error
	SetSegmentEntryID(ctx context.Context, id int64, entryID string) error
	DeleteSegment(ctx context.Context, id int64) error
	ListSegments(ctx context.Context, taskID string) ([]models.Segment, error)
	ListSegmentsStarting(ctx context.Context, from, to time.Time) ([]models.Segment, error)
}

// DayStore abstracts the work day and break ledger.
type DayStore interface {
	GetWorkDay(ctx context.Context, day string) (*models.WorkDay, error)
	EnsureWorkDay(ctx context.Context, day string) (*models.WorkDay, error)
	SetCome(ctx context.Context, day string, at time.Time) error
	SetGo(ctx context.Context, day string, at time.Time) error
	SetDayMarkers(ctx context.Context, day string, dayType models.DayType, isBr, isHo bool) error
	ListWorkDays(ctx context.Context, from, to string) (map[string]models.WorkDay, error)
	StartBreak(ctx context.Context, day string, at time.Time, note string) (*models.Break, error)
	EndBreak(ctx context.Context, day string, at time.Time) (bool, error)
	ListBreaks(ctx context.Context, day string) ([]models.Break, error)
	ListBreaksInRange(ctx context.Context, from, to string) (map[string][]models.Break, error)
	SaveManualDay(ctx context.Context, day string, come, goAt *time.Time, breaks []models.Break) error
}

// ReportStore exposes the aggregate queries of the reports.
type ReportStore interface {
	DayStore
	MonthTicketMinutes(ctx context.Context, month string) (int, error)
	TopTasksForMonth(ctx context.Context, month string, limit int) ([]TaskMinutes, error)
	ListTasksOverlapping(ctx context.Context, from, to time.Time) ([]models.Task, error)
	ListSegmentsStarting(ctx context.Context, from, to time.Time) ([]models.Segment, error)
}

var (
	_ TaskStore   = (*Store)(nil)
	_ DayStore    = (*Store)(nil)
	_ ReportStore = (*Store)(nil)
)
