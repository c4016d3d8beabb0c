package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tasktool/internal/models"
)

const segmentColumns = "id, task_id, start_local, end_local, planned_minutes, note, calendar_entry_id"

// CreateSegment inserts a segment and assigns its id.
func (s *Store) CreateSegment(ctx context.Context, seg *models.Segment) error {
	if seg == nil {
		return fmt.Errorf("segment is required")
	}
	seg.Recompute()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO task_segments (task_id, start_local, end_local, planned_minutes, note, calendar_entry_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		seg.TaskID,
		nullLocalValue(seg.Start),
		nullLocalValue(seg.End),
		seg.PlannedMinutes,
		nullIfEmpty(seg.Note),
		nullIfEmpty(seg.CalendarEntryID),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	seg.ID = id
	return nil
}

// GetSegment returns a segment by id, or nil when it does not exist.
func (s *Store) GetSegment(ctx context.Context, id int64) (*models.Segment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+segmentColumns+" FROM task_segments WHERE id = ?", id)
	return scanSegment(row)
}

// UpdateSegment writes range and note. Planned minutes are recomputed.
func (s *Store) UpdateSegment(ctx context.Context, seg *models.Segment) error {
	if seg == nil || seg.ID == 0 {
		return fmt.Errorf("segment id is required")
	}
	seg.Recompute()
	_, err := s.db.ExecContext(ctx, `
		UPDATE task_segments SET start_local = ?, end_local = ?, planned_minutes = ?, note = ?
		WHERE id = ?
	`, nullLocalValue(seg.Start), nullLocalValue(seg.End), seg.PlannedMinutes, nullIfEmpty(seg.Note), seg.ID)
	return err
}

// SetSegmentEntryID stores or clears the calendar entry id of a segment.
func (s *Store) SetSegmentEntryID(ctx context.Context, id int64, entryID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE task_segments SET calendar_entry_id = ? WHERE id = ?", nullIfEmpty(entryID), id)
	return err
}

// DeleteSegment removes one segment.
func (s *Store) DeleteSegment(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM task_segments WHERE id = ?", id)
	return err
}

// ListSegments returns the segments of a task ordered by start.
func (s *Store) ListSegments(ctx context.Context, taskID string) ([]models.Segment, error) {
	return s.querySegments(ctx, "SELECT "+segmentColumns+" FROM task_segments WHERE task_id = ? ORDER BY start_local, id", taskID)
}

// ListSegmentsStarting returns segments starting within [from, to).
func (s *Store) ListSegmentsStarting(ctx context.Context, from, to time.Time) ([]models.Segment, error) {
	return s.querySegments(ctx, `
		SELECT `+segmentColumns+` FROM task_segments
		WHERE start_local >= ? AND start_local < ?
		ORDER BY start_local, id
	`, formatLocal(from), formatLocal(to))
}

func (s *Store) querySegments(ctx context.Context, query string, args ...any) ([]models.Segment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []models.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *seg)
	}
	return segments, rows.Err()
}

func scanSegment(scanner interface {
	Scan(dest ...any) error
}) (*models.Segment, error) {
	var seg models.Segment
	var start, end, note, entryID sql.NullString
	if err := scanner.Scan(&seg.ID, &seg.TaskID, &start, &end, &seg.PlannedMinutes, &note, &entryID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if seg.Start, err = parseLocalValue(start); err != nil {
		return nil, err
	}
	if seg.End, err = parseLocalValue(end); err != nil {
		return nil, err
	}
	seg.Note = note.String
	seg.CalendarEntryID = entryID.String
	return &seg, nil
}
