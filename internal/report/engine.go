// Package report reconciles attendance against weekday targets.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktool/internal/models"
	"tasktool/internal/store"
	"tasktool/internal/timecalc"
)

// DefaultTopTasks bounds the monthly task ranking.
const DefaultTopTasks = 5

// UntitledTask replaces empty titles in rankings.
const UntitledTask = "(ohne Titel)"

// ErrInvalidPeriod is returned for malformed day or month keys.
var ErrInvalidPeriod = errors.New("invalid report period")

// Targets supplies the weekday target minutes.
type Targets interface {
	Targets() models.WeekdayTargets
}

// DaySummary is the reconciliation of one day.
type DaySummary struct {
	Day             string         `json:"day"`
	Weekday         string         `json:"weekday"`
	DayType         models.DayType `json:"day_type"`
	IsBr            bool           `json:"is_br"`
	IsHo            bool           `json:"is_ho"`
	Come            *time.Time     `json:"come,omitempty"`
	Go              *time.Time     `json:"go,omitempty"`
	Breaks          []models.Break `json:"breaks,omitempty"`
	NetMinutes      int            `json:"net_minutes"`
	TargetMinutes   int            `json:"target_minutes"`
	OvertimeMinutes int            `json:"overtime_minutes"`
}

// Totals sums net, target and overtime minutes.
type Totals struct {
	NetMinutes      int `json:"net_minutes"`
	TargetMinutes   int `json:"target_minutes"`
	OvertimeMinutes int `json:"overtime_minutes"`
}

func (t *Totals) add(d DaySummary) {
	t.NetMinutes += d.NetMinutes
	t.TargetMinutes += d.TargetMinutes
	t.OvertimeMinutes += d.OvertimeMinutes
}

// MonthReport covers every day of one month.
type MonthReport struct {
	Month         string              `json:"month"`
	Days          []DaySummary        `json:"days"`
	Totals        Totals              `json:"totals"`
	TicketMinutes int                 `json:"ticket_minutes"`
	TopTasks      []store.TaskMinutes `json:"top_tasks"`
}

// TodayReport is the current day with the month-to-date overtime.
type TodayReport struct {
	Today               DaySummary `json:"today"`
	MonthToDateOvertime int        `json:"month_to_date_overtime_minutes"`
}

// WeekDay is a day of the week view with its planned work.
type WeekDay struct {
	DaySummary
	Tasks    []models.Task    `json:"tasks"`
	Segments []models.Segment `json:"segments"`
}

// WeekReport covers Monday through Sunday.
type WeekReport struct {
	Start  string    `json:"start"`
	End    string    `json:"end"`
	Days   []WeekDay `json:"days"`
	Totals Totals    `json:"totals"`
}

// Engine computes reports from the store. It never creates day rows.
type Engine struct {
	store   store.ReportStore
	targets Targets
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(st store.ReportStore, targets Targets, opts ...Option) *Engine {
	e := &Engine{store: st, targets: targets, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Day reconciles a single day.
func (e *Engine) Day(ctx context.Context, day string) (DaySummary, error) {
	start, err := models.ParseDayKey(day)
	if err != nil {
		return DaySummary{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, day)
	}
	days, err := e.summaries(ctx, start, start)
	if err != nil {
		return DaySummary{}, err
	}
	return days[0], nil
}

// Month reconciles every day of month ("2006-01") and ranks its tasks by
// booked minutes. topN <= 0 uses DefaultTopTasks.
func (e *Engine) Month(ctx context.Context, month string, topN int) (MonthReport, error) {
	first, err := time.ParseInLocation(models.MonthLayout, strings.TrimSpace(month), time.Local)
	if err != nil {
		return MonthReport{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, month)
	}
	if topN <= 0 {
		topN = DefaultTopTasks
	}
	last := first.AddDate(0, 1, -1)
	key := first.Format(models.MonthLayout)

	days, err := e.summaries(ctx, first, last)
	if err != nil {
		return MonthReport{}, err
	}
	report := MonthReport{Month: key, Days: days}
	for _, d := range days {
		report.Totals.add(d)
	}

	if report.TicketMinutes, err = e.store.MonthTicketMinutes(ctx, key); err != nil {
		return MonthReport{}, err
	}
	top, err := e.store.TopTasksForMonth(ctx, key, topN)
	if err != nil {
		return MonthReport{}, err
	}
	for i := range top {
		if strings.TrimSpace(top[i].Title) == "" {
			top[i].Title = UntitledTask
		}
	}
	report.TopTasks = top
	return report, nil
}

// Today reconciles the current day and sums overtime from the first of
// the month through today.
func (e *Engine) Today(ctx context.Context) (TodayReport, error) {
	now := e.now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)

	days, err := e.summaries(ctx, first, today)
	if err != nil {
		return TodayReport{}, err
	}
	var report TodayReport
	for _, d := range days {
		report.MonthToDateOvertime += d.OvertimeMinutes
	}
	report.Today = days[len(days)-1]
	return report, nil
}

// Week reports the Monday-start week containing day, with the tasks
// touching each day and the segments starting on it.
func (e *Engine) Week(ctx context.Context, day string) (WeekReport, error) {
	ref, err := models.ParseDayKey(day)
	if err != nil {
		return WeekReport{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, day)
	}
	monday := WeekStart(ref)
	sunday := monday.AddDate(0, 0, 6)
	after := monday.AddDate(0, 0, 7)

	days, err := e.summaries(ctx, monday, sunday)
	if err != nil {
		return WeekReport{}, err
	}
	tasks, err := e.store.ListTasksOverlapping(ctx, monday, after)
	if err != nil {
		return WeekReport{}, err
	}
	segments, err := e.store.ListSegmentsStarting(ctx, monday, after)
	if err != nil {
		return WeekReport{}, err
	}
	segmentsByDay := map[string][]models.Segment{}
	for _, seg := range segments {
		key := models.DayKey(seg.Start)
		segmentsByDay[key] = append(segmentsByDay[key], seg)
	}

	report := WeekReport{Start: models.DayKey(monday), End: models.DayKey(sunday)}
	for i, summary := range days {
		dayStart := monday.AddDate(0, 0, i)
		wd := WeekDay{DaySummary: summary, Tasks: []models.Task{}, Segments: segmentsByDay[summary.Day]}
		if wd.Segments == nil {
			wd.Segments = []models.Segment{}
		}
		for _, task := range tasks {
			if task.IsOnDay(dayStart) {
				wd.Tasks = append(wd.Tasks, task)
			}
		}
		report.Totals.add(summary)
		report.Days = append(report.Days, wd)
	}
	return report, nil
}

// WeekStart returns local midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	local := t.In(time.Local)
	offset := (int(local.Weekday()) + 6) % 7
	return time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, time.Local)
}

// summaries reconciles each day in [from, to], both local midnights.
func (e *Engine) summaries(ctx context.Context, from, to time.Time) ([]DaySummary, error) {
	fromKey, toKey := models.DayKey(from), models.DayKey(to)
	stored, err := e.store.ListWorkDays(ctx, fromKey, toKey)
	if err != nil {
		return nil, err
	}
	breaks, err := e.store.ListBreaksInRange(ctx, fromKey, toKey)
	if err != nil {
		return nil, err
	}
	targets := e.targets.Targets()

	var out []DaySummary
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := models.DayKey(d)
		wd, ok := stored[key]
		if !ok {
			wd = models.DefaultWorkDay(key)
		}
		dayBreaks := breaks[key]
		net := timecalc.NetMinutes(wd.Come, wd.Go, dayBreaks)
		target := timecalc.TargetMinutes(wd.DayType, d.Weekday(), targets)
		out = append(out, DaySummary{
			Day:             key,
			Weekday:         d.Weekday().String(),
			DayType:         wd.DayType,
			IsBr:            wd.IsBr,
			IsHo:            wd.IsHo,
			Come:            wd.Come,
			Go:              wd.Go,
			Breaks:          dayBreaks,
			NetMinutes:      net,
			TargetMinutes:   target,
			OvertimeMinutes: timecalc.Overtime(net, target),
		})
	}
	return out, nil
}
