package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tasktool/internal/api"
	"tasktool/internal/format"
	"tasktool/internal/models"
	"tasktool/internal/report"
	"tasktool/internal/timecalc"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

var stdout io.Writer = os.Stdout

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeTable(t format.Table) error {
	return t.Write(stdout, nil)
}

func writeTaskList(tasks []models.Task) error {
	if len(tasks) == 0 {
		return writePlain("no tasks\n")
	}
	table := format.Table{Headers: []string{"ID", "Status", "Start", "End", "Title"}}
	for _, task := range tasks {
		table.Rows = append(table.Rows, []string{
			task.ID, string(task.Status), formatLocal(task.StartLocal), formatLocal(task.EndLocal), task.Title,
		})
	}
	return writeTable(table)
}

func writeTaskDetail(task api.TaskDetailResponse) error {
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("status: %s", task.Status),
	}
	if task.StartLocal != nil {
		lines = append(lines, fmt.Sprintf("start: %s", formatLocal(task.StartLocal)))
	}
	if task.EndLocal != nil {
		lines = append(lines, fmt.Sprintf("end: %s", formatLocal(task.EndLocal)))
	}
	if task.Priority != nil {
		lines = append(lines, fmt.Sprintf("priority: %d", *task.Priority))
	}
	if task.Tags != "" {
		lines = append(lines, fmt.Sprintf("tags: %s", task.Tags))
	}
	if task.TicketURL != "" {
		lines = append(lines, fmt.Sprintf("ticket_url: %s", task.TicketURL))
	}
	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", task.Description))
	}
	if task.CalendarEntryID != "" {
		lines = append(lines, fmt.Sprintf("calendar_entry: %s", task.CalendarEntryID))
	}
	lines = append(lines,
		fmt.Sprintf("tracked: %s", timecalc.FormatClock(time.Duration(task.TrackedSeconds)*time.Second)),
		fmt.Sprintf("ticket_minutes_booked: %d", task.TicketMinutesBooked),
	)
	if err := writePlain("%s\n", strings.Join(lines, "\n")); err != nil {
		return err
	}

	if len(task.Segments) > 0 {
		if err := writePlain("\nsegments:\n"); err != nil {
			return err
		}
		if err := writeSegmentTable(task.Segments); err != nil {
			return err
		}
	}
	if len(task.TimeLogs) > 0 {
		if err := writePlain("\ntime logs:\n"); err != nil {
			return err
		}
		table := format.Table{Headers: []string{"Start", "End", "Note"}}
		for _, log := range task.TimeLogs {
			start := log.Start
			table.Rows = append(table.Rows, []string{formatLocal(&start), formatLocal(log.End), log.Note})
		}
		return writeTable(table)
	}
	return nil
}

func writeSegmentList(segments []models.Segment) error {
	if len(segments) == 0 {
		return writePlain("no segments\n")
	}
	return writeSegmentTable(segments)
}

func writeSegmentTable(segments []models.Segment) error {
	table := format.Table{Headers: []string{"ID", "Start", "End", "Minutes", "Synced", "Note"}, Right: []int{3}}
	for _, seg := range segments {
		start, end := seg.Start, seg.End
		synced := "no"
		if seg.CalendarEntryID != "" {
			synced = "yes"
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(seg.ID, 10), formatLocal(&start), formatLocal(&end),
			strconv.Itoa(seg.PlannedMinutes), synced, seg.Note,
		})
	}
	return writeTable(table)
}

func writeDay(day api.DayResponse) error {
	lines := []string{
		fmt.Sprintf("day: %s", day.Day),
		fmt.Sprintf("type: %s", day.DayType),
		fmt.Sprintf("come: %s", formatClock(day.Come)),
		fmt.Sprintf("go: %s", formatClock(day.Go)),
	}
	if day.IsBr {
		lines = append(lines, "business trip: yes")
	}
	if day.IsHo {
		lines = append(lines, "home office: yes")
	}
	if err := writePlain("%s\n", strings.Join(lines, "\n")); err != nil {
		return err
	}
	return writeBreaks(day.Breaks)
}

func writeBreaks(breaks []models.Break) error {
	if len(breaks) == 0 {
		return nil
	}
	table := format.Table{Headers: []string{"Break", "Start", "End", "Note"}}
	for _, b := range breaks {
		start := b.Start
		table.Rows = append(table.Rows, []string{strconv.FormatInt(b.ID, 10), formatClock(&start), formatClock(b.End), b.Note})
	}
	if err := writePlain("\n"); err != nil {
		return err
	}
	return writeTable(table)
}

func writeDaySummary(day report.DaySummary) error {
	lines := []string{
		fmt.Sprintf("%s %s (%s)", day.Weekday, day.Day, day.DayType),
		fmt.Sprintf("come: %s  go: %s", formatClock(day.Come), formatClock(day.Go)),
		fmt.Sprintf("net: %s", timecalc.FormatMinutes(day.NetMinutes)),
		fmt.Sprintf("target: %s", timecalc.FormatMinutes(day.TargetMinutes)),
		fmt.Sprintf("overtime: %s", timecalc.FormatMinutes(day.OvertimeMinutes)),
	}
	if err := writePlain("%s\n", strings.Join(lines, "\n")); err != nil {
		return err
	}
	return writeBreaks(day.Breaks)
}

func writeToday(today api.TodayResponse) error {
	if err := writeDaySummary(today.Today); err != nil {
		return err
	}
	return writePlain("month to date overtime: %s\n", timecalc.FormatMinutes(today.MonthToDateOvertime))
}

func summaryRow(day report.DaySummary) []string {
	return []string{
		day.Day, shortWeekday(day.Weekday), string(day.DayType), formatClock(day.Come), formatClock(day.Go),
		timecalc.FormatMinutes(day.NetMinutes), timecalc.FormatMinutes(day.TargetMinutes), timecalc.FormatMinutes(day.OvertimeMinutes),
	}
}

var summaryHeaders = []string{"Day", "Wd", "Type", "Come", "Go", "Net", "Target", "Overtime"}

func writeWeek(week api.WeekResponse) error {
	table := format.Table{Headers: summaryHeaders, Right: []int{5, 6, 7}}
	for _, day := range week.Days {
		table.Rows = append(table.Rows, summaryRow(day.DaySummary))
	}
	table.Footer = totalsRow(week.Totals)
	if err := writePlain("week %s to %s\n", week.Start, week.End); err != nil {
		return err
	}
	if err := writeTable(table); err != nil {
		return err
	}
	for _, day := range week.Days {
		if len(day.Tasks) == 0 {
			continue
		}
		titles := make([]string, 0, len(day.Tasks))
		for _, task := range day.Tasks {
			titles = append(titles, task.Title)
		}
		if err := writePlain("%s: %s\n", day.Day, strings.Join(titles, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func writeMonth(month api.MonthResponse) error {
	table := format.Table{Headers: summaryHeaders, Right: []int{5, 6, 7}}
	for _, day := range month.Days {
		table.Rows = append(table.Rows, summaryRow(day))
	}
	table.Footer = totalsRow(month.Totals)
	if err := writePlain("month %s\n", month.Month); err != nil {
		return err
	}
	if err := writeTable(table); err != nil {
		return err
	}
	if err := writePlain("ticket minutes booked: %d\n", month.TicketMinutes); err != nil {
		return err
	}
	if len(month.TopTasks) == 0 {
		return nil
	}
	top := format.Table{Headers: []string{"Task", "Tracked"}, Right: []int{1}}
	for _, task := range month.TopTasks {
		top.Rows = append(top.Rows, []string{task.Title, timecalc.FormatMinutes(task.Minutes)})
	}
	if err := writePlain("\ntop tasks:\n"); err != nil {
		return err
	}
	return writeTable(top)
}

func totalsRow(totals report.Totals) []string {
	return []string{
		"Total", "", "", "", "",
		timecalc.FormatMinutes(totals.NetMinutes), timecalc.FormatMinutes(totals.TargetMinutes), timecalc.FormatMinutes(totals.OvertimeMinutes),
	}
}

func writeReminders(reminders []api.ReminderResponse) error {
	if len(reminders) == 0 {
		return writePlain("no pending reminders\n")
	}
	table := format.Table{Headers: []string{"Task", "Start", "Title", "Snoozed"}}
	for _, r := range reminders {
		start := r.Start
		snoozed := ""
		if r.Snoozed {
			snoozed = "yes"
		}
		table.Rows = append(table.Rows, []string{r.TaskID, formatLocal(&start), r.Title, snoozed})
	}
	return writeTable(table)
}

func shortWeekday(name string) string {
	if len(name) > 3 {
		return name[:3]
	}
	return name
}

func formatLocal(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format("2006-01-02 15:04")
}

func formatClock(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "--:--"
	}
	return t.In(time.Local).Format("15:04")
}
