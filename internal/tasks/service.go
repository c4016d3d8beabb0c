// Package tasks implements the task lifecycle, planned segments and their
// calendar mirroring.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tasktool/internal/calendar"
	"tasktool/internal/launcher"
	"tasktool/internal/models"
	"tasktool/internal/notify"
	"tasktool/internal/store"
)

const (
	pauseNote = "pause"
	stopNote  = "stop"
)

// Calendar is the part of the calendar gateway the service calls.
type Calendar interface {
	UpsertBlock(ctx context.Context, existingID, title, body string, start, end time.Time) (string, error)
	DeleteBlock(ctx context.Context, entryID string) error
	TestConnection(ctx context.Context) error
}

var _ Calendar = (*calendar.Gateway)(nil)

// Service owns task, time log and segment mutations.
type Service struct {
	store    store.TaskStore
	calendar Calendar
	hub      *notify.Hub
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	lastErr string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHub publishes change events to hub.
func WithHub(hub *notify.Hub) Option {
	return func(s *Service) { s.hub = hub }
}

// NewService constructs a Service. A nil calendar disables mirroring.
func NewService(st store.TaskStore, cal Calendar, opts ...Option) *Service {
	if cal == nil {
		cal = disabledCalendar{}
	}
	s := &Service{
		store:    st,
		calendar: cal,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "tasks")
	return s
}

// LastError returns the message of the most recent failed calendar call.
func (s *Service) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Service) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *Service) publish(topic notify.Topic, key string) {
	s.hub.Publish(notify.Event{Topic: topic, Key: key})
}

// TaskInput carries the fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	TicketURL   string
	Start       *time.Time
	End         *time.Time
	Status      models.TaskStatus
	Priority    *int
	Tags        string
}

// TaskPatch carries optional field changes. Clear flags reset a field.
type TaskPatch struct {
	Title         *string
	Description   *string
	TicketURL     *string
	Start         *time.Time
	ClearStart    bool
	End           *time.Time
	ClearEnd      bool
	Status        *models.TaskStatus
	Priority      *int
	ClearPriority bool
	Tags          *string
}

// Create validates input and stores a new task.
func (s *Service) Create(ctx context.Context, input TaskInput) (*models.Task, error) {
	ticketURL, err := normalizeTicketURL(input.TicketURL)
	if err != nil {
		return nil, err
	}
	input.TicketURL = ticketURL
	return s.create(ctx, input)
}

// create stores input with the ticket text as given.
func (s *Service) create(ctx context.Context, input TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if err := validateRange(input.Start, input.End); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = models.StatusPlanned
	}
	if !models.IsValidTaskStatus(status) {
		return nil, invalid("invalid status: %s", status)
	}

	id, err := store.GenerateTaskID(ctx, s.store.TaskExists)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	task := &models.Task{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		TicketURL:   strings.TrimSpace(input.TicketURL),
		StartLocal:  localPtr(input.Start),
		EndLocal:    localPtr(input.End),
		Status:      status,
		Priority:    input.Priority,
		Tags:        strings.TrimSpace(input.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	s.publish(notify.TasksChanged, task.ID)
	return task, nil
}

// Update applies patch to the task and returns the stored result.
func (s *Service) Update(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title cannot be empty")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.TicketURL != nil {
		ticketURL, err := normalizeTicketURL(*patch.TicketURL)
		if err != nil {
			return nil, err
		}
		task.TicketURL = ticketURL
	}
	switch {
	case patch.ClearStart:
		task.StartLocal = nil
	case patch.Start != nil:
		task.StartLocal = localPtr(patch.Start)
	}
	switch {
	case patch.ClearEnd:
		task.EndLocal = nil
	case patch.End != nil:
		task.EndLocal = localPtr(patch.End)
	}
	if err := validateRange(task.StartLocal, task.EndLocal); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if !models.IsValidTaskStatus(*patch.Status) {
			return nil, invalid("invalid status: %s", *patch.Status)
		}
		task.Status = *patch.Status
	}
	switch {
	case patch.ClearPriority:
		task.Priority = nil
	case patch.Priority != nil:
		task.Priority = patch.Priority
	}
	if patch.Tags != nil {
		task.Tags = strings.TrimSpace(*patch.Tags)
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	s.publish(notify.TasksChanged, task.ID)
	return task, nil
}

// Get returns the task or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("task id is required")
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(id)
	}
	return task, nil
}

// Scope selects tasks by completion.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeActive Scope = "active"
	ScopeDone   Scope = "done"
)

// ListOptions narrows List.
type ListOptions struct {
	Scope  Scope
	Search string
	Limit  int
}

// List returns tasks running first, then planned, done and the rest.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Task, error) {
	filter := store.TaskFilter{Search: strings.TrimSpace(opts.Search), Limit: opts.Limit}
	switch opts.Scope {
	case "", ScopeAll:
	case ScopeActive:
		filter.ExcludeStatuses = []models.TaskStatus{models.StatusDone}
	case ScopeDone:
		filter.Statuses = []models.TaskStatus{models.StatusDone}
	default:
		return nil, invalid("invalid scope: %s", opts.Scope)
	}
	if opts.Limit < 0 {
		return nil, invalid("limit must be >= 0")
	}
	return s.store.ListTasks(ctx, filter)
}

// ForDay returns tasks starting on day together with unscheduled tasks.
func (s *Service) ForDay(ctx context.Context, day time.Time) ([]models.Task, error) {
	d := day.In(time.Local)
	return s.store.ListTasks(ctx, store.TaskFilter{Day: &d, IncludeUnscheduled: true})
}

// InRange returns tasks starting in [from, to).
func (s *Service) InRange(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	if !to.After(from) {
		return nil, invalid("range end must be after start")
	}
	f, t := from.In(time.Local), to.In(time.Local)
	return s.store.ListTasks(ctx, store.TaskFilter{StartFrom: &f, StartTo: &t})
}

// Upcoming returns open tasks starting in [from, to).
func (s *Service) Upcoming(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	if !to.After(from) {
		return nil, nil
	}
	f, t := from.In(time.Local), to.In(time.Local)
	return s.store.ListTasks(ctx, store.TaskFilter{
		StartFrom:       &f,
		StartTo:         &t,
		ExcludeStatuses: []models.TaskStatus{models.StatusDone, models.StatusCancelled},
	})
}

// Delete removes a task with its segments and time logs. Calendar blocks
// are deleted first; failures there are logged and do not stop the delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	segments, err := s.store.ListSegments(ctx, task.ID)
	if err != nil {
		return err
	}
	for _, seg := range segments {
		if seg.CalendarEntryID == "" {
			continue
		}
		if err := s.calendar.DeleteBlock(ctx, seg.CalendarEntryID); err != nil {
			s.logger.Warn("calendar delete failed during task delete", "task_id", task.ID, "segment_id", seg.ID, "entry_id", seg.CalendarEntryID, "error", err)
		}
	}
	if task.CalendarEntryID != "" {
		if err := s.calendar.DeleteBlock(ctx, task.CalendarEntryID); err != nil {
			s.logger.Warn("calendar delete failed during task delete", "task_id", task.ID, "entry_id", task.CalendarEntryID, "error", err)
		}
	}
	if err := s.store.DeleteTask(ctx, task.ID); err != nil {
		return err
	}
	s.publish(notify.TasksChanged, task.ID)
	s.publish(notify.SegmentsChanged, task.ID)
	return nil
}

func normalizeTicketURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	if _, err := launcher.Validate(value); err != nil {
		return "", invalid("invalid ticket url: %s", value)
	}
	return value, nil
}

func validateRange(start, end *time.Time) error {
	if end != nil && start == nil {
		return invalid("end requires a start")
	}
	if start != nil && end != nil && end.Before(*start) {
		return invalid("end must not be before start")
	}
	return nil
}

func localPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(time.Local)
	return &v
}

func notFoundAs(err error, replacement error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return replacement
	}
	return err
}

type disabledCalendar struct{}

func (disabledCalendar) UpsertBlock(_ context.Context, existingID, _, _ string, _, _ time.Time) (string, error) {
	return existingID, calendar.ErrSyncDisabled
}

func (disabledCalendar) DeleteBlock(context.Context, string) error { return nil }

func (disabledCalendar) TestConnection(context.Context) error { return calendar.ErrSyncDisabled }
