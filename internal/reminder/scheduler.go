// Package reminder announces tasks shortly before their planned start.
package reminder

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tasktool/internal/models"
)

const (
	DefaultInterval = 30 * time.Second
	SnoozeFor       = 5 * time.Minute
	// window extends the lead so a start is not missed between polls.
	window = time.Minute
)

// Reminder is one announcement of an upcoming task.
type Reminder struct {
	TaskID  string    `json:"task_id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	Snoozed bool      `json:"snoozed"`
}

// Source lists open tasks starting in [from, to).
type Source interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]models.Task, error)
}

// LeadTime supplies how long before a start reminders fire.
type LeadTime interface {
	ReminderLead() time.Duration
}

type snooze struct {
	until    time.Time
	reminder Reminder
}

// Scheduler polls the source and hands each reminder to notify once per
// planned start.
type Scheduler struct {
	source   Source
	lead     LeadTime
	notify   func(Reminder)
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	shown   map[string]time.Time
	snoozed map[string]snooze
	pending map[string]Reminder
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler constructs a Scheduler. notify may be nil when callers only
// read Pending.
func NewScheduler(source Source, lead LeadTime, notify func(Reminder), opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		lead:     lead,
		notify:   notify,
		interval: DefaultInterval,
		logger:   slog.Default(),
		now:      time.Now,
		shown:    map[string]time.Time{},
		snoozed:  map[string]snooze{},
		pending:  map[string]Reminder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "reminder")
	return s
}

// Run checks immediately and then on every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Check(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("reminder check failed", "error", err)
	}
}

// Check fires reminders for tasks starting within the lead time and for
// snoozes that expired. It returns the reminders fired.
func (s *Scheduler) Check(ctx context.Context) ([]Reminder, error) {
	now := s.now()
	lead := s.lead.ReminderLead()
	if lead < 0 {
		lead = 0
	}
	tasks, err := s.source.Upcoming(ctx, now, now.Add(lead+window))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var fired []Reminder
	for _, task := range tasks {
		if task.StartLocal == nil {
			continue
		}
		if sn, ok := s.snoozed[task.ID]; ok && now.Before(sn.until) {
			continue
		}
		if start, ok := s.shown[task.ID]; ok && start.Equal(*task.StartLocal) {
			continue
		}
		r := Reminder{TaskID: task.ID, Title: task.Title, Start: *task.StartLocal}
		s.shown[task.ID] = r.Start
		delete(s.snoozed, task.ID)
		s.pending[task.ID] = r
		fired = append(fired, r)
	}
	for id, sn := range s.snoozed {
		if now.Before(sn.until) {
			continue
		}
		delete(s.snoozed, id)
		r := sn.reminder
		r.Snoozed = true
		s.pending[id] = r
		fired = append(fired, r)
	}
	s.mu.Unlock()

	sort.Slice(fired, func(i, j int) bool { return fired[i].Start.Before(fired[j].Start) })
	for _, r := range fired {
		s.logger.Info("reminder", "task_id", r.TaskID, "title", r.Title, "start", r.Start.Format(models.LocalLayout), "snoozed", r.Snoozed)
		if s.notify != nil {
			s.notify(r)
		}
	}
	return fired, nil
}

// Snooze hides a fired reminder and fires it again after SnoozeFor. It
// reports whether the task had a pending reminder.
func (s *Scheduler) Snooze(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pending[taskID]
	if !ok {
		return false
	}
	delete(s.pending, taskID)
	s.snoozed[taskID] = snooze{until: s.now().Add(SnoozeFor), reminder: r}
	return true
}

// Dismiss removes a pending reminder without snoozing it.
func (s *Scheduler) Dismiss(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[taskID]
	delete(s.pending, taskID)
	return ok
}

// Pending returns fired reminders that were neither snoozed nor dismissed,
// ordered by start.
func (s *Scheduler) Pending() []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
