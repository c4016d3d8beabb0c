package store

import (
	"fmt"
	"strings"

	"tasktool/internal/models"
)

type listQueryBuilder struct {
	filter TaskFilter
	query  string
	args   []any
	where  []string
}

func buildListQuery(filter TaskFilter) (string, []any) {
	builder := &listQueryBuilder{filter: filter}
	builder.buildSelect()
	builder.buildWhere()
	builder.buildOrder()
	builder.buildPagination()
	return builder.query, builder.args
}

func (b *listQueryBuilder) buildSelect() {
	b.query = "SELECT " + taskColumns + " FROM tasks"
}

func (b *listQueryBuilder) buildWhere() {
	b.appendStatuses()
	b.appendExcludedStatuses()
	b.appendSearch()
	b.appendStartRange()
	b.appendDay()

	if len(b.where) == 0 {
		return
	}
	b.query += " WHERE " + strings.Join(b.where, " AND ")
}

func (b *listQueryBuilder) buildOrder() {
	if b.filter.Day != nil {
		b.query += " ORDER BY start_local"
		return
	}
	b.query += ` ORDER BY CASE status
		WHEN 'Running' THEN 0
		WHEN 'Planned' THEN 1
		WHEN 'Done' THEN 2
		ELSE 3 END, COALESCE(start_local, created_utc) DESC`
}

func (b *listQueryBuilder) buildPagination() {
	if b.filter.Limit > 0 {
		b.query += " LIMIT ?"
		b.args = append(b.args, b.filter.Limit)
	}
}

func (b *listQueryBuilder) appendStatuses() {
	if len(b.filter.Statuses) == 0 {
		return
	}
	b.where = append(b.where, fmt.Sprintf("status IN (%s)", placeholders(len(b.filter.Statuses))))
	b.args = append(b.args, statusArgs(b.filter.Statuses)...)
}

func (b *listQueryBuilder) appendExcludedStatuses() {
	if len(b.filter.ExcludeStatuses) == 0 {
		return
	}
	b.where = append(b.where, fmt.Sprintf("status NOT IN (%s)", placeholders(len(b.filter.ExcludeStatuses))))
	b.args = append(b.args, statusArgs(b.filter.ExcludeStatuses)...)
}

func (b *listQueryBuilder) appendSearch() {
	term := strings.ToLower(strings.TrimSpace(b.filter.Search))
	if term == "" {
		return
	}
	like := "%" + term + "%"
	b.where = append(b.where, "(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(COALESCE(ticket_url, '')) LIKE ?)")
	b.args = append(b.args, like, like, like)
}

func (b *listQueryBuilder) appendStartRange() {
	if b.filter.StartFrom != nil {
		b.where = append(b.where, "start_local >= ?")
		b.args = append(b.args, formatLocal(*b.filter.StartFrom))
	}
	if b.filter.StartTo != nil {
		b.where = append(b.where, "start_local < ?")
		b.args = append(b.args, formatLocal(*b.filter.StartTo))
	}
}

func (b *listQueryBuilder) appendDay() {
	if b.filter.Day == nil {
		return
	}
	clause := "substr(start_local, 1, 10) = ?"
	if b.filter.IncludeUnscheduled {
		clause = "(" + clause + " OR start_local IS NULL)"
	}
	b.where = append(b.where, clause)
	b.args = append(b.args, models.DayKey(*b.filter.Day))
}

func statusArgs(statuses []models.TaskStatus) []any {
	out := make([]any, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
