package watch

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tasktool/internal/api"
	"tasktool/internal/models"
	"tasktool/internal/reminder"
	"tasktool/internal/report"
)

type fakeSource struct {
	tasks     []models.Task
	elapsed   map[string]int64
	reminders []reminder.Reminder
	snoozed   []string
	dismissed []string
	err       error
}

func (f *fakeSource) TodayReport(context.Context) (api.TodayResponse, error) {
	if f.err != nil {
		return api.TodayResponse{}, f.err
	}
	return report.TodayReport{
		Today:               report.DaySummary{Day: "2024-01-15", Weekday: "Monday", NetMinutes: 125, TargetMinutes: 480, OvertimeMinutes: -355},
		MonthToDateOvertime: 30,
	}, nil
}

func (f *fakeSource) ListTasks(_ context.Context, query url.Values) ([]models.Task, error) {
	if query.Get("scope") != "active" {
		return nil, errors.New("unexpected scope")
	}
	return f.tasks, nil
}

func (f *fakeSource) Elapsed(_ context.Context, id string) (api.ElapsedResponse, error) {
	return api.ElapsedResponse{TaskID: id, Seconds: f.elapsed[id]}, nil
}

func (f *fakeSource) Reminders(context.Context) ([]api.ReminderResponse, error) {
	return f.reminders, nil
}

func (f *fakeSource) SnoozeReminder(_ context.Context, id string) (api.ReminderActionResponse, error) {
	f.snoozed = append(f.snoozed, id)
	return api.ReminderActionResponse{TaskID: id, OK: true}, nil
}

func (f *fakeSource) DismissReminder(_ context.Context, id string) (api.ReminderActionResponse, error) {
	f.dismissed = append(f.dismissed, id)
	return api.ReminderActionResponse{TaskID: id, OK: true}, nil
}

func newFake() *fakeSource {
	return &fakeSource{
		tasks: []models.Task{
			{ID: "t1", Title: "Write report", Status: models.StatusRunning},
			{ID: "t2", Title: "Review", Status: models.StatusPlanned},
		},
		elapsed: map[string]int64{"t1": 90},
		reminders: []reminder.Reminder{
			{TaskID: "t3", Title: "Standup", Start: time.Date(2024, 1, 15, 9, 30, 0, 0, time.Local)},
		},
	}
}

func runCmd(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected command")
	}
	m.Update(cmd())
}

func TestRefreshPopulatesView(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	m := NewModel(newFake(), func() time.Time { return now })
	runCmd(t, m, m.Init())

	if len(m.Running) != 1 || m.Running[0].ID != "t1" {
		t.Fatalf("expected only the running task, got %+v", m.Running)
	}
	view := m.View()
	for _, want := range []string{"Write report", "00:01:30", "2h 05m", "Standup", "09:30"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Review") {
		t.Fatalf("planned task should not be shown:\n%s", view)
	}
}

func TestTickAdvancesElapsed(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	m := NewModel(newFake(), func() time.Time { return now })
	runCmd(t, m, m.Init())

	now = now.Add(5 * time.Second)
	if _, cmd := m.Update(MsgTick{}); cmd != nil {
		t.Fatal("did not expect a poll on the first tick")
	}
	if got := m.Elapsed(m.Running[0]); got != 95*time.Second {
		t.Fatalf("expected 95s, got %s", got)
	}
	for i := 1; i < RefreshEvery-1; i++ {
		m.Update(MsgTick{})
	}
	if _, cmd := m.Update(MsgTick{}); cmd == nil {
		t.Fatal("expected a poll after RefreshEvery ticks")
	}
}

func TestSnoozeAndDismissKeys(t *testing.T) {
	src := newFake()
	m := NewModel(src, nil)
	runCmd(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	runCmd(t, m, cmd)
	if len(src.snoozed) != 1 || src.snoozed[0] != "t3" {
		t.Fatalf("expected snooze for t3, got %v", src.snoozed)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	runCmd(t, m, cmd)
	if len(src.dismissed) != 1 {
		t.Fatalf("expected one dismiss, got %v", src.dismissed)
	}
}

func TestQuitKey(t *testing.T) {
	m := NewModel(newFake(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestRefreshErrorKeepsLastState(t *testing.T) {
	src := newFake()
	m := NewModel(src, nil)
	runCmd(t, m, m.Init())

	src.err = errors.New("connection refused")
	runCmd(t, m, m.refresh())
	if m.Err == nil || m.Today == nil {
		t.Fatalf("expected error with previous report kept, got err=%v today=%v", m.Err, m.Today)
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Fatal("expected error in view")
	}
}
