// Package watch is a terminal dashboard showing running tasks, today's
// balance and pending reminders.
package watch

import (
	"context"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tasktool/internal/api"
	"tasktool/internal/models"
)

// RefreshEvery is how many ticks pass between server polls.
const RefreshEvery = 30

const requestTimeout = 5 * time.Second

// Source is the slice of the API the dashboard reads.
type Source interface {
	TodayReport(ctx context.Context) (api.TodayResponse, error)
	ListTasks(ctx context.Context, query url.Values) ([]models.Task, error)
	Elapsed(ctx context.Context, id string) (api.ElapsedResponse, error)
	Reminders(ctx context.Context) ([]api.ReminderResponse, error)
	SnoozeReminder(ctx context.Context, taskID string) (api.ReminderActionResponse, error)
	DismissReminder(ctx context.Context, taskID string) (api.ReminderActionResponse, error)
}

// MsgTick advances the running clocks by wall time.
type MsgTick struct{}

// MsgRefreshed carries a completed poll.
type MsgRefreshed struct {
	Today     *api.TodayResponse
	Running   []RunningTask
	Reminders []api.ReminderResponse
	Err       error
}

// MsgActionDone reports a snooze or dismiss.
type MsgActionDone struct {
	Err error
}

// RunningTask is a task with its tracked time at fetch.
type RunningTask struct {
	ID        string
	Title     string
	Tracked   time.Duration
	FetchedAt time.Time
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	src   Source
	now   func() time.Time
	ticks int

	Today     *api.TodayResponse
	Running   []RunningTask
	Reminders []api.ReminderResponse
	Err       error
	Width     int
}

// NewModel builds a dashboard over src.
func NewModel(src Source, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	return &Model{src: src, now: now}
}

func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		m.ticks++
		if m.ticks%RefreshEvery == 0 {
			return m, m.refresh()
		}
		return m, nil
	case MsgRefreshed:
		m.Err = msg.Err
		if msg.Err == nil {
			m.Today = msg.Today
			m.Running = msg.Running
			m.Reminders = msg.Reminders
		}
		return m, nil
	case MsgActionDone:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		return m, m.refresh()
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		return m, m.refresh()
	case "s":
		if len(m.Reminders) == 0 {
			return m, nil
		}
		return m, m.action(m.Reminders[0].TaskID, m.src.SnoozeReminder)
	case "d":
		if len(m.Reminders) == 0 {
			return m, nil
		}
		return m, m.action(m.Reminders[0].TaskID, m.src.DismissReminder)
	}
	return m, nil
}

// Elapsed is the live tracked time of a running task.
func (m *Model) Elapsed(rt RunningTask) time.Duration {
	d := rt.Tracked
	if since := m.now().Sub(rt.FetchedAt); since > 0 {
		d += since
	}
	return d.Truncate(time.Second)
}

func (m *Model) refresh() tea.Cmd {
	src, now := m.src, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return poll(ctx, src, now)
	}
}

func (m *Model) action(taskID string, fn func(context.Context, string) (api.ReminderActionResponse, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := fn(ctx, taskID)
		return MsgActionDone{Err: err}
	}
}

func poll(ctx context.Context, src Source, now func() time.Time) MsgRefreshed {
	today, err := src.TodayReport(ctx)
	if err != nil {
		return MsgRefreshed{Err: err}
	}
	tasks, err := src.ListTasks(ctx, url.Values{"scope": {"active"}})
	if err != nil {
		return MsgRefreshed{Err: err}
	}
	var running []RunningTask
	for _, task := range tasks {
		if task.Status != models.StatusRunning {
			continue
		}
		elapsed, err := src.Elapsed(ctx, task.ID)
		if err != nil {
			return MsgRefreshed{Err: err}
		}
		running = append(running, RunningTask{
			ID:        task.ID,
			Title:     task.Title,
			Tracked:   time.Duration(elapsed.Seconds) * time.Second,
			FetchedAt: now(),
		})
	}
	reminders, err := src.Reminders(ctx)
	if err != nil {
		return MsgRefreshed{Err: err}
	}
	return MsgRefreshed{Today: &today, Running: running, Reminders: reminders}
}

// Run shows the dashboard until the user quits or ctx ends.
func Run(ctx context.Context, src Source) error {
	p := tea.NewProgram(NewModel(src, nil), tea.WithAltScreen(), tea.WithContext(ctx))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Send(MsgTick{})
			}
		}
	}()

	_, err := p.Run()
	return err
}
