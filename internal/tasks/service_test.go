package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tasktool/internal/calendar"
	"tasktool/internal/models"
	"tasktool/internal/notify"
	"tasktool/internal/store"
)

type syncSettings struct {
	enabled bool
}

func (s syncSettings) CalendarSyncEnabled() bool { return s.enabled }
func (s syncSettings) CalendarCategory() string  { return "" }

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	svc     *Service
	store   *store.Store
	backend *calendar.MemoryBackend
	clock   *testClock
	hub     *notify.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := calendar.NewMemoryBackend()
	gw := calendar.NewGateway(backend, syncSettings{enabled: true}, calendar.WithLogger(logger))
	t.Cleanup(gw.Close)

	clock := &testClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	hub := notify.NewHub()
	svc := NewService(st, gw, WithClock(clock.Now), WithLogger(logger), WithHub(hub))
	return &testEnv{svc: svc, store: st, backend: backend, clock: clock, hub: hub}
}

func localAt(day, h, m int) time.Time {
	return time.Date(2024, 1, day, h, m, 0, 0, time.Local)
}

func mustCreate(t *testing.T, svc *Service, input TaskInput) *models.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func mustAddSegment(t *testing.T, svc *Service, taskID string, start, end time.Time) *models.Segment {
	t.Helper()
	seg, err := svc.AddSegment(context.Background(), SegmentInput{TaskID: taskID, Start: start, End: end})
	if err != nil {
		t.Fatalf("add segment: %v", err)
	}
	return seg
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	start := localAt(15, 10, 0)
	before := localAt(15, 9, 0)

	tests := []struct {
		name  string
		input TaskInput
	}{
		{name: "empty title", input: TaskInput{Title: "   "}},
		{name: "relative ticket url", input: TaskInput{Title: "x", TicketURL: "tickets/1"}},
		{name: "unsupported scheme", input: TaskInput{Title: "x", TicketURL: "mailto:me@example.com"}},
		{name: "end before start", input: TaskInput{Title: "x", Start: &start, End: &before}},
		{name: "end without start", input: TaskInput{Title: "x", End: &start}},
		{name: "unknown status", input: TaskInput{Title: "x", Status: "Blocked"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateDefaultsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	var events []notify.Event
	env.hub.Subscribe(func(ev notify.Event) { events = append(events, ev) })

	task := mustCreate(t, env.svc, TaskInput{Title: "  Write report ", TicketURL: "https://tickets.example.com/T-7"})
	if task.Title != "Write report" || task.Status != models.StatusPlanned {
		t.Fatalf("unexpected task %+v", task)
	}
	if len(events) != 1 || events[0].Topic != notify.TasksChanged || events[0].Key != task.ID {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestGetMissingTask(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.svc.Start(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on start, got %v", err)
	}
	if _, err := env.svc.Get(context.Background(), "missing"); errors.Is(err, ErrSegmentNotFound) {
		t.Fatalf("missing task reported as missing segment: %v", err)
	}
}

func TestMissingSegmentKind(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Segment(context.Background(), 42)
	if !errors.Is(err, ErrSegmentNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected segment not found, got %v", err)
	}
}

func TestUpdatePatch(t *testing.T) {
	env := newTestEnv(t)
	start := localAt(15, 9, 0)
	end := localAt(15, 10, 0)
	task := mustCreate(t, env.svc, TaskInput{Title: "A", Start: &start, End: &end, Tags: "x"})

	title := "B"
	cancelled := models.StatusCancelled
	updated, err := env.svc.Update(context.Background(), task.ID, TaskPatch{Title: &title, Status: &cancelled, ClearEnd: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "B" || updated.Status != models.StatusCancelled || updated.EndLocal != nil || updated.Tags != "x" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	empty := ""
	if _, err := env.svc.Update(context.Background(), task.ID, TaskPatch{Title: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}
}

func TestStartPauseTracksDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Focus"})

	started, err := env.svc.Start(ctx, task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.StatusRunning {
		t.Fatalf("expected running, got %s", started.Status)
	}

	env.clock.Advance(30 * time.Minute)
	paused, err := env.svc.Pause(ctx, task.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != models.StatusPlanned {
		t.Fatalf("expected planned after pause, got %s", paused.Status)
	}

	env.clock.Advance(time.Hour)
	tracked, err := env.svc.TrackedDuration(ctx, task.ID)
	if err != nil {
		t.Fatalf("tracked duration: %v", err)
	}
	if diff := tracked - 30*time.Minute; diff < -time.Second || diff > time.Second {
		t.Fatalf("expected 30m tracked, got %v", tracked)
	}

	logs, err := env.svc.TimeLogs(ctx, task.ID)
	if err != nil {
		t.Fatalf("time logs: %v", err)
	}
	if len(logs) != 1 || logs[0].End == nil || logs[0].Note != "pause" {
		t.Fatalf("unexpected logs %+v", logs)
	}
}

func TestRestartClosesOpenLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Focus"})

	if _, err := env.svc.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.Advance(10 * time.Minute)
	if _, err := env.svc.Start(ctx, task.ID); err != nil {
		t.Fatalf("restart: %v", err)
	}
	env.clock.Advance(5 * time.Minute)

	logs, err := env.svc.TimeLogs(ctx, task.ID)
	if err != nil {
		t.Fatalf("time logs: %v", err)
	}
	open := 0
	for _, l := range logs {
		if l.End == nil {
			open++
		}
	}
	if len(logs) != 2 || open != 1 || logs[0].Note != "restart" {
		t.Fatalf("expected one closed restart log and one open log, got %+v", logs)
	}

	tracked, err := env.svc.TrackedDuration(ctx, task.ID)
	if err != nil {
		t.Fatalf("tracked duration: %v", err)
	}
	if tracked != 15*time.Minute {
		t.Fatalf("expected 15m including the open log, got %v", tracked)
	}
}

func TestStopDemotesOnlyRunning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Focus"})

	if _, err := env.svc.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.Advance(time.Minute)
	stopped, err := env.svc.Stop(ctx, task.ID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Status != models.StatusPlanned {
		t.Fatalf("expected planned after stop, got %s", stopped.Status)
	}
	if _, err := env.svc.Stop(ctx, task.ID); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}

	logs, _ := env.svc.TimeLogs(ctx, task.ID)
	if len(logs) != 1 || logs[0].Note != "stop" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	if _, err := env.svc.MarkDone(ctx, task.ID); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	done, err := env.svc.Stop(ctx, task.ID)
	if err != nil {
		t.Fatalf("stop done task: %v", err)
	}
	if done.Status != models.StatusDone {
		t.Fatalf("expected done task to stay done, got %s", done.Status)
	}

	reopened, err := env.svc.Reopen(ctx, task.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != models.StatusPlanned {
		t.Fatalf("expected planned after reopen, got %s", reopened.Status)
	}
}

func TestAddTicketMinutesMayGoNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Ticket"})

	if _, err := env.svc.AddTicketMinutes(ctx, task.ID, 15); err != nil {
		t.Fatalf("add: %v", err)
	}
	updated, err := env.svc.AddTicketMinutes(ctx, task.ID, -30)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if updated.TicketMinutesBooked != -15 {
		t.Fatalf("expected -15, got %d", updated.TicketMinutesBooked)
	}
}

func TestListScopesAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := mustCreate(t, env.svc, TaskInput{Title: "Deploy service"})
	b := mustCreate(t, env.svc, TaskInput{Title: "Review", Description: "deploy notes"})
	c := mustCreate(t, env.svc, TaskInput{Title: "Done thing", TicketURL: "https://tickets.example.com/DEPLOY-1"})
	if _, err := env.svc.MarkDone(ctx, c.ID); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if _, err := env.svc.Start(ctx, b.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	active, err := env.svc.List(ctx, ListOptions{Scope: ScopeActive})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 || active[0].ID != b.ID || active[1].ID != a.ID {
		t.Fatalf("expected running task first among active, got %+v", active)
	}

	done, err := env.svc.List(ctx, ListOptions{Scope: ScopeDone})
	if err != nil {
		t.Fatalf("list done: %v", err)
	}
	if len(done) != 1 || done[0].ID != c.ID {
		t.Fatalf("unexpected done list %+v", done)
	}

	found, err := env.svc.List(ctx, ListOptions{Search: "DEPLOY"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected search over title, description and ticket url, got %d", len(found))
	}

	if _, err := env.svc.List(ctx, ListOptions{Scope: "later"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for scope, got %v", err)
	}
}

func TestUpcomingExcludesClosedTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	soon := localAt(15, 9, 1)
	open := mustCreate(t, env.svc, TaskInput{Title: "Open", Start: &soon})
	done := mustCreate(t, env.svc, TaskInput{Title: "Done", Start: &soon})
	cancelled := mustCreate(t, env.svc, TaskInput{Title: "Cancelled", Start: &soon, Status: models.StatusCancelled})
	if _, err := env.svc.MarkDone(ctx, done.ID); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	upcoming, err := env.svc.Upcoming(ctx, localAt(15, 9, 0), localAt(15, 9, 3))
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != open.ID {
		t.Fatalf("expected only %s, got %+v (cancelled %s)", open.ID, upcoming, cancelled.ID)
	}
}

func TestSegmentsRecomputePlannedMinutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Segmented"})
	seg := mustAddSegment(t, env.svc, task.ID, localAt(15, 9, 0), localAt(15, 10, 30))
	if seg.PlannedMinutes != 90 {
		t.Fatalf("expected 90 planned minutes, got %d", seg.PlannedMinutes)
	}

	endClock := "11:00"
	date := localAt(16, 0, 0)
	updated, err := env.svc.UpdateSegment(ctx, seg.ID, SegmentPatch{Date: &date, EndClock: &endClock})
	if err != nil {
		t.Fatalf("update segment: %v", err)
	}
	if updated.PlannedMinutes != 120 || updated.Start.Day() != 16 {
		t.Fatalf("unexpected segment %+v", updated)
	}

	bad := "25:99"
	if _, err := env.svc.UpdateSegment(ctx, seg.ID, SegmentPatch{StartClock: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for clock, got %v", err)
	}
}

func TestSyncAllSegmentsContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Multi day"})
	seg1 := mustAddSegment(t, env.svc, task.ID, localAt(15, 9, 0), localAt(15, 10, 0))
	seg2 := mustAddSegment(t, env.svc, task.ID, localAt(16, 9, 0), localAt(16, 10, 0))
	seg3 := mustAddSegment(t, env.svc, task.ID, localAt(17, 9, 0), localAt(17, 10, 0))

	failing := fmt.Sprintf("SegmentID: %d\n", seg2.ID)
	env.backend.FailSave = func(_ string, b calendar.Block) error {
		if strings.Contains(b.Body, failing) {
			return errors.New("calendar rejected entry")
		}
		return nil
	}

	failed, err := env.svc.SyncAllSegments(ctx, task.ID)
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if failed != 1 {
		t.Fatalf("expected 1 failure, got %d", failed)
	}
	if env.svc.LastError() == "" {
		t.Fatal("expected last error to be recorded")
	}

	for _, tc := range []struct {
		id     int64
		synced bool
	}{{seg1.ID, true}, {seg2.ID, false}, {seg3.ID, true}} {
		got, err := env.svc.Segment(ctx, tc.id)
		if err != nil {
			t.Fatalf("get segment %d: %v", tc.id, err)
		}
		if (got.CalendarEntryID != "") != tc.synced {
			t.Fatalf("segment %d: synced=%v, entry id %q", tc.id, tc.synced, got.CalendarEntryID)
		}
	}
}

func TestSegmentBodyCarriesIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Traced", Description: "desc", TicketURL: "https://t.example.com/1"})
	seg, err := env.svc.AddSegment(ctx, SegmentInput{TaskID: task.ID, Start: localAt(15, 9, 0), End: localAt(15, 9, 30), Note: "prep"})
	if err != nil {
		t.Fatalf("add segment: %v", err)
	}

	synced, err := env.svc.SyncSegment(ctx, seg.ID)
	if err != nil {
		t.Fatalf("sync segment: %v", err)
	}
	block, ok := env.backend.Entry(synced.CalendarEntryID)
	if !ok {
		t.Fatalf("expected block %q", synced.CalendarEntryID)
	}
	want := fmt.Sprintf("desc\nhttps://t.example.com/1\nTaskID: %s\nSegmentID: %d\nNote: prep", task.ID, seg.ID)
	if block.Body != want || block.Subject != "Focus: Traced" {
		t.Fatalf("unexpected block %+v", block)
	}
}

func TestSyncSegmentInvalidRangeSkipsBackend(t *testing.T) {
	env := newTestEnv(t)
	task := mustCreate(t, env.svc, TaskInput{Title: "Unscheduled"})
	seg := mustAddSegment(t, env.svc, task.ID, localAt(15, 10, 0), time.Time{})

	_, err := env.svc.SyncSegment(context.Background(), seg.ID)
	if !errors.Is(err, calendar.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if saves, _ := env.backend.Calls(); saves != 0 {
		t.Fatalf("expected no backend calls, got %d", saves)
	}
}

func TestSyncTaskKeepsEntryIDOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start, end := localAt(15, 9, 0), localAt(15, 10, 0)
	task := mustCreate(t, env.svc, TaskInput{Title: "Block", Start: &start, End: &end})

	synced, err := env.svc.SyncTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("sync task: %v", err)
	}
	entryID := synced.CalendarEntryID
	if entryID == "" {
		t.Fatal("expected entry id")
	}

	env.backend.FailSave = func(string, calendar.Block) error { return errors.New("offline") }
	if _, err := env.svc.SyncTask(ctx, task.ID); err == nil {
		t.Fatal("expected sync failure")
	}
	got, _ := env.svc.Get(ctx, task.ID)
	if got.CalendarEntryID != entryID {
		t.Fatalf("expected entry id %q kept, got %q", entryID, got.CalendarEntryID)
	}
	if !strings.Contains(env.svc.LastError(), "offline") {
		t.Fatalf("unexpected last error %q", env.svc.LastError())
	}

	cleared, err := env.svc.DeleteTaskBlock(ctx, task.ID)
	if err != nil {
		t.Fatalf("delete task block: %v", err)
	}
	if cleared.CalendarEntryID != "" || env.backend.Len() != 0 {
		t.Fatalf("expected block removed, entry id %q, %d entries", cleared.CalendarEntryID, env.backend.Len())
	}
}

func TestDeleteSegmentKeepsSegmentWhenCalendarFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := mustCreate(t, env.svc, TaskInput{Title: "Segment"})
	seg := mustAddSegment(t, env.svc, task.ID, localAt(15, 9, 0), localAt(15, 10, 0))
	if _, err := env.svc.SyncSegment(ctx, seg.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	env.backend.FailRemove = func(string) error { return calendar.ErrPermission }
	if err := env.svc.DeleteSegment(ctx, seg.ID); err == nil {
		t.Fatal("expected delete failure")
	}
	if _, err := env.svc.Segment(ctx, seg.ID); err != nil {
		t.Fatalf("expected segment kept: %v", err)
	}

	env.backend.FailRemove = nil
	if err := env.svc.DeleteSegment(ctx, seg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.svc.Segment(ctx, seg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected segment gone, got %v", err)
	}
}

func TestDeleteTaskContinuesPastCalendarFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start, end := localAt(15, 9, 0), localAt(15, 10, 0)
	task := mustCreate(t, env.svc, TaskInput{Title: "Cascade", Start: &start, End: &end})
	seg := mustAddSegment(t, env.svc, task.ID, start, end)
	if _, err := env.svc.SyncSegment(ctx, seg.ID); err != nil {
		t.Fatalf("sync segment: %v", err)
	}
	if _, err := env.svc.SyncTask(ctx, task.ID); err != nil {
		t.Fatalf("sync task: %v", err)
	}
	if _, err := env.svc.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	env.backend.FailRemove = func(string) error { return errors.New("calendar offline") }
	if err := env.svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, removes := env.backend.Calls(); removes != 2 {
		t.Fatalf("expected two delete attempts, got %d", removes)
	}
	if _, err := env.svc.Get(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected task gone, got %v", err)
	}
	logs, err := env.store.ListTimeLogs(ctx, task.ID)
	if err != nil {
		t.Fatalf("list time logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected time logs removed, got %d", len(logs))
	}
}

func TestServiceWithoutCalendar(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	svc := NewService(st, nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	task, err := svc.Create(context.Background(), TaskInput{Title: "Local only"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SyncTask(context.Background(), task.ID); !errors.Is(err, calendar.ErrSyncDisabled) {
		t.Fatalf("expected sync disabled, got %v", err)
	}
	if err := svc.Delete(context.Background(), task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
