package store

import (
	"context"
	"database/sql"
	"time"

	"tasktool/internal/models"
)

const restartNote = "restart"

// StartTask marks the task Running and opens a new time log at at. Any log
// still open for the task is closed first.
func (s *Store) StartTask(ctx context.Context, taskID string, at time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "UPDATE tasks SET status = ?, updated_utc = ? WHERE id = ?", string(models.StatusRunning), formatTime(at), taskID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = sql.ErrNoRows
		return err
	}
	if _, err = tx.ExecContext(ctx, "UPDATE time_logs SET end_utc = ?, note = ? WHERE task_id = ? AND end_utc IS NULL", formatTime(at), restartNote, taskID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO time_logs (task_id, start_utc, end_utc, note) VALUES (?, ?, NULL, NULL)", taskID, formatTime(at)); err != nil {
		return err
	}
	return tx.Commit()
}

// CloseTimeLog ends the most recent open log of the task. It reports
// whether a log was open.
func (s *Store) CloseTimeLog(ctx context.Context, taskID string, at time.Time, note string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE time_logs SET end_utc = ?, note = ?
		WHERE id = (SELECT id FROM time_logs WHERE task_id = ? AND end_utc IS NULL ORDER BY id DESC LIMIT 1)
	`, formatTime(at), nullIfEmpty(note), taskID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListTimeLogs returns all logs of a task in insertion order.
func (s *Store) ListTimeLogs(ctx context.Context, taskID string) ([]models.TimeLog, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, task_id, start_utc, end_utc, note FROM time_logs WHERE task_id = ? ORDER BY id", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.TimeLog
	for rows.Next() {
		var log models.TimeLog
		var start string
		var end, note sql.NullString
		if err := rows.Scan(&log.ID, &log.TaskID, &start, &end, &note); err != nil {
			return nil, err
		}
		if log.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if end.Valid {
			parsed, err := parseTime(end.String)
			if err != nil {
				return nil, err
			}
			log.End = &parsed
		}
		log.Note = note.String
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
