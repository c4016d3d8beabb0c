package tasks

import (
	"context"
	"strings"
	"time"

	"tasktool/internal/models"
	"tasktool/internal/timecalc"
)

// DefaultQuickAddTitle names tasks created from input without a title.
const DefaultQuickAddTitle = "Neue Aufgabe"

var quickAddLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseQuickAdd reads "title | start | duration | ticket url". Fields are
// trimmed and empty fields dropped. The end is only set when both start
// and duration parse; a "15:04" start means that time today.
func ParseQuickAdd(input string, now time.Time) TaskInput {
	var parts []string
	for _, p := range strings.Split(input, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	draft := TaskInput{Title: DefaultQuickAddTitle, Status: models.StatusPlanned}
	if len(parts) > 0 {
		draft.Title = parts[0]
	}
	if len(parts) > 1 {
		if start, ok := parseQuickStart(parts[1], now); ok {
			draft.Start = &start
		}
	}
	if len(parts) > 2 && draft.Start != nil {
		if d, ok := timecalc.ParseDuration(parts[2]); ok {
			end := draft.Start.Add(d)
			draft.End = &end
		}
	}
	if len(parts) > 3 {
		draft.TicketURL = parts[3]
	}
	return draft
}

// QuickAdd parses input and creates the task. The ticket field is stored
// as typed; it is only checked when opened.
func (s *Service) QuickAdd(ctx context.Context, input string) (*models.Task, error) {
	return s.create(ctx, ParseQuickAdd(input, s.now()))
}

func parseQuickStart(value string, now time.Time) (time.Time, bool) {
	for _, layout := range quickAddLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	if clock, err := time.Parse("15:04", value); err == nil {
		today := now.In(time.Local)
		return time.Date(today.Year(), today.Month(), today.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local), true
	}
	return time.Time{}, false
}
