package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tasktool/internal/models"
)

const taskColumns = "id, title, description, ticket_url, start_local, end_local, status, priority, tags, calendar_entry_id, ticket_minutes_booked, created_utc, updated_utc"

// TaskFilter narrows ListTasks. Zero values disable a filter.
type TaskFilter struct {
	Statuses        []models.TaskStatus
	ExcludeStatuses []models.TaskStatus
	Search          string
	// StartFrom and StartTo bound start_local to [StartFrom, StartTo).
	StartFrom *time.Time
	StartTo   *time.Time
	// Day selects tasks starting on that date, plus unscheduled tasks when
	// IncludeUnscheduled is set.
	Day                *time.Time
	IncludeUnscheduled bool
	Limit              int
}

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, ticket_url, start_local, end_local, status, priority, tags,
			calendar_entry_id, ticket_minutes_booked, ticket_seconds_booked, created_utc, updated_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Title,
		nullIfEmpty(task.Description),
		nullIfEmpty(task.TicketURL),
		nullLocal(task.StartLocal),
		nullLocal(task.EndLocal),
		string(task.Status),
		nullInt(task.Priority),
		nullIfEmpty(task.Tags),
		nullIfEmpty(task.CalendarEntryID),
		task.TicketMinutesBooked,
		task.TicketSecondsBooked(),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	return err
}

// GetTask returns a task by id, or nil when it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

// UpdateTask writes the editable fields of a task. Booked minutes and the
// calendar entry id have their own setters.
func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, ticket_url = ?, start_local = ?, end_local = ?,
			status = ?, priority = ?, tags = ?, updated_utc = ?
		WHERE id = ?
	`,
		task.Title,
		nullIfEmpty(task.Description),
		nullIfEmpty(task.TicketURL),
		nullLocal(task.StartLocal),
		nullLocal(task.EndLocal),
		string(task.Status),
		nullInt(task.Priority),
		nullIfEmpty(task.Tags),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	return err
}

// SetTaskStatus updates only the status of a task.
func (s *Store) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE tasks SET status = ?, updated_utc = ? WHERE id = ?", string(status), formatTime(at), id)
	return err
}

// SetTaskEntryID stores the calendar entry id of a task block. An empty
// id clears it.
func (s *Store) SetTaskEntryID(ctx context.Context, id, entryID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE tasks SET calendar_entry_id = ?, updated_utc = ? WHERE id = ?", nullIfEmpty(entryID), formatTime(at), id)
	return err
}

// AddTicketMinutes adds delta to the booked minutes and returns the new total.
func (s *Store) AddTicketMinutes(ctx context.Context, id string, delta int, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			ticket_minutes_booked = ticket_minutes_booked + ?,
			ticket_seconds_booked = (ticket_minutes_booked + ?) * 60,
			updated_utc = ?
		WHERE id = ?
	`, delta, delta, formatTime(at), id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, sql.ErrNoRows
	}
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT ticket_minutes_booked FROM tasks WHERE id = ?", id).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListTasks returns tasks matching the filter, running tasks first.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query, args := buildListQuery(filter)
	return s.queryTasks(ctx, query, args...)
}

// ListTasksOverlapping returns scheduled tasks whose range touches [from, to).
// Tasks without an end are treated as instantaneous at their start.
func (s *Store) ListTasksOverlapping(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE start_local IS NOT NULL
		AND start_local < ?
		AND COALESCE(end_local, start_local) >= ?
		ORDER BY start_local
	`, formatLocal(to), formatLocal(from))
}

// DeleteTask removes a task with its segments and time logs.
func (s *Store) DeleteTask(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		"DELETE FROM task_segments WHERE task_id = ?",
		"DELETE FROM time_logs WHERE task_id = ?",
		"DELETE FROM tasks WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var description, ticketURL, startLocal, endLocal, tags, entryID sql.NullString
	var priority sql.NullInt64
	var status, createdAt, updatedAt string

	if err := scanner.Scan(
		&task.ID,
		&task.Title,
		&description,
		&ticketURL,
		&startLocal,
		&endLocal,
		&status,
		&priority,
		&tags,
		&entryID,
		&task.TicketMinutesBooked,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	task.Description = description.String
	task.TicketURL = ticketURL.String
	task.Status = models.TaskStatus(status)
	task.Tags = tags.String
	task.CalendarEntryID = entryID.String
	if priority.Valid {
		p := int(priority.Int64)
		task.Priority = &p
	}

	var err error
	if task.StartLocal, err = parseNullLocal(startLocal); err != nil {
		return nil, err
	}
	if task.EndLocal, err = parseNullLocal(endLocal); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// formatLocal stores the wall clock of t without a zone.
func formatLocal(t time.Time) string {
	return t.Format(models.LocalLayout)
}

func nullLocal(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatLocal(*value)
}

func nullLocalValue(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return formatLocal(value)
}

func parseLocal(value string) (time.Time, error) {
	return time.ParseInLocation(models.LocalLayout, value, time.Local)
}

func parseNullLocal(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := parseLocal(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseLocalValue(value sql.NullString) (time.Time, error) {
	parsed, err := parseNullLocal(value)
	if err != nil || parsed == nil {
		return time.Time{}, err
	}
	return *parsed, nil
}
