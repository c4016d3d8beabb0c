package store

import (
	"context"
	"database/sql"
)

// TaskMinutes is one row of the booked-time ranking.
type TaskMinutes struct {
	TaskID  string `json:"task_id"`
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
}

// monthOf selects the month a task belongs to: its planned start, else its
// creation time.
const monthOf = "substr(COALESCE(start_local, created_utc), 1, 7)"

// MonthTicketMinutes sums booked minutes of the tasks of month ("2006-01").
func (s *Store) MonthTicketMinutes(ctx context.Context, month string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(ticket_minutes_booked), 0) FROM tasks WHERE "+monthOf+" = ?", month).Scan(&total)
	return total, err
}

// TopTasksForMonth ranks the tasks of month by booked minutes, then title.
func (s *Store) TopTasksForMonth(ctx context.Context, month string, limit int) ([]TaskMinutes, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, ticket_minutes_booked FROM tasks
		WHERE `+monthOf+` = ?
		ORDER BY ticket_minutes_booked DESC, title ASC
		LIMIT ?
	`, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TaskMinutes
	for rows.Next() {
		var row TaskMinutes
		var title sql.NullString
		if err := rows.Scan(&row.TaskID, &title, &row.Minutes); err != nil {
			return nil, err
		}
		row.Title = title.String
		out = append(out, row)
	}
	return out, rows.Err()
}
