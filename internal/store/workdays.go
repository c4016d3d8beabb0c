package store

import (
	"context"
	"database/sql"
	"time"

	"tasktool/internal/models"
)

const workDayColumns = "day, come_local, go_local, day_type, is_br, is_ho"

// GetWorkDay returns the stored day, or nil when no row exists.
func (s *Store) GetWorkDay(ctx context.Context, day string) (*models.WorkDay, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+workDayColumns+" FROM work_days WHERE day = ?", day)
	return scanWorkDay(row)
}

// EnsureWorkDay returns the day, inserting a default row when absent.
func (s *Store) EnsureWorkDay(ctx context.Context, day string) (*models.WorkDay, error) {
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO work_days (day, day_type, is_br, is_ho) VALUES (?, ?, 0, 0)", day, string(models.DayNormal)); err != nil {
		return nil, err
	}
	return s.GetWorkDay(ctx, day)
}

// SetCome upserts the arrival time of the day.
func (s *Store) SetCome(ctx context.Context, day string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_days (day, come_local, day_type, is_br, is_ho) VALUES (?, ?, ?, 0, 0)
		ON CONFLICT(day) DO UPDATE SET come_local = excluded.come_local
	`, day, formatLocal(at), string(models.DayNormal))
	return err
}

// SetGo upserts the leaving time of the day.
func (s *Store) SetGo(ctx context.Context, day string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_days (day, go_local, day_type, is_br, is_ho) VALUES (?, ?, ?, 0, 0)
		ON CONFLICT(day) DO UPDATE SET go_local = excluded.go_local
	`, day, formatLocal(at), string(models.DayNormal))
	return err
}

// SetDayMarkers upserts day type and the br/ho flags.
func (s *Store) SetDayMarkers(ctx context.Context, day string, dayType models.DayType, isBr, isHo bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_days (day, day_type, is_br, is_ho) VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET day_type = excluded.day_type, is_br = excluded.is_br, is_ho = excluded.is_ho
	`, day, string(dayType), boolInt(isBr), boolInt(isHo))
	return err
}

// ListWorkDays returns stored days within [from, to] keyed by day.
func (s *Store) ListWorkDays(ctx context.Context, from, to string) (map[string]models.WorkDay, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+workDayColumns+" FROM work_days WHERE day >= ? AND day <= ? ORDER BY day", from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := map[string]models.WorkDay{}
	for rows.Next() {
		day, err := scanWorkDay(rows)
		if err != nil {
			return nil, err
		}
		days[day.Day] = *day
	}
	return days, rows.Err()
}

// StartBreak opens a break on the day, creating the day when needed.
func (s *Store) StartBreak(ctx context.Context, day string, at time.Time, note string) (*models.Break, error) {
	if _, err := s.EnsureWorkDay(ctx, day); err != nil {
		return nil, err
	}
	if note == "" {
		note = models.DefaultBreakNote
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO breaks (day, start_local, end_local, note) VALUES (?, ?, NULL, ?)", day, formatLocal(at), note)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Break{ID: id, Day: day, Start: at, Note: note}, nil
}

// EndBreak closes the most recently opened break of the day that is still
// open. It reports whether a break was closed.
func (s *Store) EndBreak(ctx context.Context, day string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE breaks SET end_local = ?
		WHERE id = (SELECT id FROM breaks WHERE day = ? AND end_local IS NULL ORDER BY id DESC LIMIT 1)
	`, formatLocal(at), day)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListBreaks returns the breaks of a day ordered by start.
func (s *Store) ListBreaks(ctx context.Context, day string) ([]models.Break, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, day, start_local, end_local, note FROM breaks WHERE day = ? ORDER BY start_local, id", day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBreaks(rows)
}

// ListBreaksInRange returns breaks within [from, to] keyed by day.
func (s *Store) ListBreaksInRange(ctx context.Context, from, to string) (map[string][]models.Break, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, day, start_local, end_local, note FROM breaks WHERE day >= ? AND day <= ? ORDER BY day, start_local, id", from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breaks, err := scanBreaks(rows)
	if err != nil {
		return nil, err
	}
	byDay := map[string][]models.Break{}
	for _, b := range breaks {
		byDay[b.Day] = append(byDay[b.Day], b)
	}
	return byDay, nil
}

// beforeBreakInsert runs before each break insert of SaveManualDay.
var beforeBreakInsert func(index int) error

// SaveManualDay replaces come, go and all breaks of the day in one
// transaction. Nothing is written when any statement fails.
func (s *Store) SaveManualDay(ctx context.Context, day string, come, goAt *time.Time, breaks []models.Break) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO work_days (day, come_local, go_local, day_type, is_br, is_ho) VALUES (?, ?, ?, ?, 0, 0)
		ON CONFLICT(day) DO UPDATE SET come_local = excluded.come_local, go_local = excluded.go_local
	`, day, nullLocal(come), nullLocal(goAt), string(models.DayNormal))
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM breaks WHERE day = ?", day); err != nil {
		return err
	}

	for i, b := range breaks {
		if beforeBreakInsert != nil {
			if err = beforeBreakInsert(i); err != nil {
				return err
			}
		}
		note := b.Note
		if note == "" {
			note = models.DefaultBreakNote
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO breaks (day, start_local, end_local, note) VALUES (?, ?, ?, ?)", day, formatLocal(b.Start), nullLocal(b.End), note); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanWorkDay(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkDay, error) {
	var day models.WorkDay
	var come, goAt sql.NullString
	var dayType string
	var isBr, isHo int
	if err := scanner.Scan(&day.Day, &come, &goAt, &dayType, &isBr, &isHo); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if day.Come, err = parseNullLocal(come); err != nil {
		return nil, err
	}
	if day.Go, err = parseNullLocal(goAt); err != nil {
		return nil, err
	}
	day.DayType = models.DayType(dayType)
	if !models.IsValidDayType(day.DayType) {
		day.DayType = models.DayNormal
	}
	day.IsBr = isBr != 0
	day.IsHo = isHo != 0
	return &day, nil
}

func scanBreaks(rows *sql.Rows) ([]models.Break, error) {
	var breaks []models.Break
	for rows.Next() {
		var b models.Break
		var start string
		var end, note sql.NullString
		if err := rows.Scan(&b.ID, &b.Day, &start, &end, &note); err != nil {
			return nil, err
		}
		parsed, err := parseLocal(start)
		if err != nil {
			return nil, err
		}
		b.Start = parsed
		if b.End, err = parseNullLocal(end); err != nil {
			return nil, err
		}
		b.Note = note.String
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
