package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tasktool/internal/models"
	"tasktool/internal/store"
)

type fixedTargets models.WeekdayTargets

func (f fixedTargets) Targets() models.WeekdayTargets { return models.WeekdayTargets(f) }

func mondayOnly() fixedTargets {
	var t fixedTargets
	t[time.Monday] = 480
	return t
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func at(day, h, m int) time.Time {
	return time.Date(2024, 1, day, h, m, 0, 0, time.Local)
}

func ptr(t time.Time) *time.Time { return &t }

func saveDay(t *testing.T, st *store.Store, day int, come, goAt time.Time, breaks ...models.Break) {
	t.Helper()
	key := models.DayKey(at(day, 0, 0))
	if err := st.SaveManualDay(context.Background(), key, &come, &goAt, breaks); err != nil {
		t.Fatalf("save day %s: %v", key, err)
	}
}

func createTask(t *testing.T, st *store.Store, id, title string, start, end *time.Time, minutes int) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	task := &models.Task{ID: id, Title: title, Status: models.StatusPlanned, StartLocal: start, EndLocal: end, CreatedAt: now, UpdatedAt: now}
	if err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task %s: %v", id, err)
	}
	if minutes != 0 {
		if _, err := st.AddTicketMinutes(ctx, id, minutes, now); err != nil {
			t.Fatalf("book minutes %s: %v", id, err)
		}
	}
}

func TestDayReconciliation(t *testing.T) {
	st := testStore(t)
	saveDay(t, st, 15, at(15, 8, 0), at(15, 17, 0), models.Break{Start: at(15, 12, 0), End: ptr(at(15, 12, 30))})
	engine := NewEngine(st, mondayOnly())

	day, err := engine.Day(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.NetMinutes != 510 || day.TargetMinutes != 480 || day.OvertimeMinutes != 30 {
		t.Fatalf("unexpected summary %+v", day)
	}

	if err := st.SetDayMarkers(context.Background(), "2024-01-15", models.DayAM, false, false); err != nil {
		t.Fatalf("set markers: %v", err)
	}
	day, err = engine.Day(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.TargetMinutes != 0 || day.OvertimeMinutes != 510 {
		t.Fatalf("expected AM day without target, got %+v", day)
	}
}

func TestDayDoesNotCreateRows(t *testing.T) {
	st := testStore(t)
	engine := NewEngine(st, mondayOnly())

	day, err := engine.Day(context.Background(), "2024-01-22")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if day.OvertimeMinutes != -480 {
		t.Fatalf("expected negative overtime for an empty monday, got %d", day.OvertimeMinutes)
	}
	stored, err := st.GetWorkDay(context.Background(), "2024-01-22")
	if err != nil {
		t.Fatalf("get work day: %v", err)
	}
	if stored != nil {
		t.Fatalf("expected no stored row, got %+v", stored)
	}
}

func TestMonthReport(t *testing.T) {
	st := testStore(t)
	saveDay(t, st, 15, at(15, 8, 0), at(15, 17, 0), models.Break{Start: at(15, 12, 0), End: ptr(at(15, 12, 30))})
	saveDay(t, st, 16, at(16, 9, 0), at(16, 12, 0))

	createTask(t, st, "a", "Alpha", ptr(at(10, 9, 0)), nil, 60)
	createTask(t, st, "b", "Beta", ptr(at(11, 9, 0)), nil, 120)
	createTask(t, st, "c", "", ptr(at(12, 9, 0)), nil, 60)
	createTask(t, st, "feb", "February", ptr(time.Date(2024, 2, 1, 9, 0, 0, 0, time.Local)), nil, 500)
	createTask(t, st, "unscheduled", "Created in January", nil, nil, 15)

	engine := NewEngine(st, mondayOnly())
	report, err := engine.Month(context.Background(), "2024-01", 3)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(report.Days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(report.Days))
	}
	// Mondays in January 2024: 1, 8, 15, 22, 29.
	if report.Totals.TargetMinutes != 5*480 || report.Totals.NetMinutes != 510+180 {
		t.Fatalf("unexpected totals %+v", report.Totals)
	}
	if report.Totals.OvertimeMinutes != 690-2400 {
		t.Fatalf("unexpected overtime %d", report.Totals.OvertimeMinutes)
	}
	if report.TicketMinutes != 255 {
		t.Fatalf("expected 255 ticket minutes, got %d", report.TicketMinutes)
	}
	if len(report.TopTasks) != 3 {
		t.Fatalf("expected top 3, got %+v", report.TopTasks)
	}
	want := []string{"Beta", UntitledTask, "Alpha"}
	for i, title := range want {
		if report.TopTasks[i].Title != title {
			t.Fatalf("top task %d: expected %q, got %q", i, title, report.TopTasks[i].Title)
		}
	}

	if _, err := engine.Month(context.Background(), "January", 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
}

func TestTodayMonthToDateOvertime(t *testing.T) {
	st := testStore(t)
	saveDay(t, st, 15, at(15, 8, 0), at(15, 17, 0), models.Break{Start: at(15, 12, 0), End: ptr(at(15, 12, 30))})
	saveDay(t, st, 17, at(17, 8, 0), at(17, 10, 0))

	engine := NewEngine(st, mondayOnly(), WithClock(func() time.Time { return at(17, 12, 0) }))
	report, err := engine.Today(context.Background())
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if report.Today.Day != "2024-01-17" || report.Today.NetMinutes != 120 || report.Today.OvertimeMinutes != 120 {
		t.Fatalf("unexpected today %+v", report.Today)
	}
	// Mondays 1 and 8 empty, 15 with +30, today +120.
	if report.MonthToDateOvertime != -480-480+30+120 {
		t.Fatalf("unexpected month-to-date overtime %d", report.MonthToDateOvertime)
	}
}

func TestWeekPlacesTasksAndSegments(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	saveDay(t, st, 15, at(15, 8, 0), at(15, 16, 0))
	createTask(t, st, "span", "Spanning", ptr(at(16, 10, 0)), ptr(at(17, 11, 0)), 0)
	createTask(t, st, "point", "Point", ptr(at(19, 9, 0)), nil, 0)
	createTask(t, st, "outside", "Next week", ptr(at(22, 9, 0)), nil, 0)

	seg := &models.Segment{TaskID: "point", Start: at(18, 9, 0), End: at(18, 10, 0)}
	if err := st.CreateSegment(ctx, seg); err != nil {
		t.Fatalf("create segment: %v", err)
	}

	engine := NewEngine(st, mondayOnly())
	for _, ref := range []string{"2024-01-17", "2024-01-21", "2024-01-15"} {
		week, err := engine.Week(ctx, ref)
		if err != nil {
			t.Fatalf("week %s: %v", ref, err)
		}
		if week.Start != "2024-01-15" || week.End != "2024-01-21" || len(week.Days) != 7 {
			t.Fatalf("week %s: unexpected range %s..%s (%d days)", ref, week.Start, week.End, len(week.Days))
		}
		counts := make([]int, 7)
		for i, d := range week.Days {
			counts[i] = len(d.Tasks)
		}
		wantCounts := []int{0, 1, 1, 0, 1, 0, 0}
		for i := range wantCounts {
			if counts[i] != wantCounts[i] {
				t.Fatalf("week %s: task counts %v, want %v", ref, counts, wantCounts)
			}
		}
		if len(week.Days[3].Segments) != 1 || week.Days[3].Segments[0].ID != seg.ID {
			t.Fatalf("week %s: expected segment on thursday, got %+v", ref, week.Days[3].Segments)
		}
		if week.Totals.NetMinutes != 480 || week.Totals.OvertimeMinutes != 0 {
			t.Fatalf("week %s: unexpected totals %+v", ref, week.Totals)
		}
	}
}

func TestWriteMonthPDF(t *testing.T) {
	st := testStore(t)
	saveDay(t, st, 15, at(15, 8, 0), at(15, 17, 0))
	createTask(t, st, "a", "Alpha", ptr(at(10, 9, 0)), nil, 60)

	report, err := NewEngine(st, mondayOnly()).Month(context.Background(), "2024-01", 0)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	path := filepath.Join(t.TempDir(), "month.pdf")
	if err := WritePDF(report, path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat pdf: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty pdf")
	}
}
