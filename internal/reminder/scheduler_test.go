package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"tasktool/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	tasks []models.Task
	err   error
	calls int
	from  time.Time
	to    time.Time
}

func (f *fakeSource) Upcoming(_ context.Context, from, to time.Time) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for _, t := range f.tasks {
		if t.StartLocal != nil && !t.StartLocal.Before(from) && t.StartLocal.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fixedLead time.Duration

func (f fixedLead) ReminderLead() time.Duration { return time.Duration(f) }

func newTestScheduler(src Source, now *time.Time) *Scheduler {
	return NewScheduler(src, fixedLead(2*time.Minute), nil,
		WithClock(func() time.Time { return *now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func taskAt(id string, start time.Time) models.Task {
	return models.Task{ID: id, Title: "Task " + id, Status: models.StatusPlanned, StartLocal: &start}
}

func TestCheckUsesLeadWindow(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	src := &fakeSource{tasks: []models.Task{
		taskAt("soon", now.Add(2*time.Minute)),
		taskAt("edge", now.Add(3*time.Minute)),
		taskAt("later", now.Add(10*time.Minute)),
	}}
	s := newTestScheduler(src, &now)

	fired, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(fired) != 1 || fired[0].TaskID != "soon" {
		t.Fatalf("expected only soon, got %+v", fired)
	}
	if !src.to.Equal(now.Add(3 * time.Minute)) {
		t.Fatalf("expected window end lead+1m, got %v", src.to)
	}
}

func TestReminderFiresOncePerStart(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	src := &fakeSource{tasks: []models.Task{taskAt("a", now.Add(time.Minute))}}
	s := newTestScheduler(src, &now)
	ctx := context.Background()

	if fired, _ := s.Check(ctx); len(fired) != 1 {
		t.Fatalf("expected first check to fire, got %+v", fired)
	}
	now = now.Add(30 * time.Second)
	if fired, _ := s.Check(ctx); len(fired) != 0 {
		t.Fatalf("expected no repeat, got %+v", fired)
	}

	src.tasks = []models.Task{taskAt("a", now.Add(90*time.Second))}
	if fired, _ := s.Check(ctx); len(fired) != 1 {
		t.Fatalf("expected a moved start to fire again, got %+v", fired)
	}
}

func TestSnoozeRefiresAfterFiveMinutes(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	src := &fakeSource{tasks: []models.Task{taskAt("a", now.Add(time.Minute))}}
	s := newTestScheduler(src, &now)
	ctx := context.Background()

	if _, err := s.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(s.Pending()) != 1 {
		t.Fatalf("expected pending reminder")
	}
	if !s.Snooze("a") {
		t.Fatal("expected snooze to apply")
	}
	if s.Snooze("missing") {
		t.Fatal("expected snooze of unknown task to fail")
	}
	if len(s.Pending()) != 0 {
		t.Fatal("expected snoozed reminder hidden")
	}

	now = now.Add(4 * time.Minute)
	if fired, _ := s.Check(ctx); len(fired) != 0 {
		t.Fatalf("expected nothing during snooze, got %+v", fired)
	}
	now = now.Add(time.Minute)
	fired, err := s.Check(ctx)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(fired) != 1 || !fired[0].Snoozed || fired[0].TaskID != "a" {
		t.Fatalf("expected snoozed reminder to fire again, got %+v", fired)
	}

	if !s.Dismiss("a") || len(s.Pending()) != 0 {
		t.Fatal("expected dismiss to clear the reminder")
	}
}

func TestCheckReportsSourceErrors(t *testing.T) {
	now := time.Now()
	src := &fakeSource{err: errors.New("db locked")}
	s := newTestScheduler(src, &now)
	if _, err := s.Check(context.Background()); err == nil {
		t.Fatal("expected source error")
	}
}

func TestRunChecksUntilCancelled(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	src := &fakeSource{tasks: []models.Task{taskAt("a", now.Add(time.Minute))}}
	got := make(chan Reminder, 1)
	s := NewScheduler(src, fixedLead(2*time.Minute), func(r Reminder) { got <- r },
		WithClock(func() time.Time { return now }),
		WithInterval(5*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case r := <-got:
		if r.TaskID != "a" {
			t.Fatalf("unexpected reminder %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reminder")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	src.mu.Lock()
	calls := src.calls
	src.mu.Unlock()
	if calls == 0 {
		t.Fatal("expected source to be polled")
	}
}
