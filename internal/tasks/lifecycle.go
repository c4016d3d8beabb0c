package tasks

import (
	"context"
	"time"

	"tasktool/internal/models"
	"tasktool/internal/notify"
)

// Start marks the task Running and opens a time log. A log that is still
// open is closed first.
func (s *Service) Start(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.StartTask(ctx, task.ID, s.now().UTC()); err != nil {
		return nil, notFoundAs(err, taskNotFound(task.ID))
	}
	return s.changed(ctx, task.ID)
}

// Pause closes the open time log and sets the task back to Planned.
func (s *Service) Pause(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if _, err := s.store.CloseTimeLog(ctx, task.ID, now, pauseNote); err != nil {
		return nil, err
	}
	if err := s.store.SetTaskStatus(ctx, task.ID, models.StatusPlanned, now); err != nil {
		return nil, err
	}
	return s.changed(ctx, task.ID)
}

// Stop closes the open time log and demotes a running task to Planned.
// Calling it without an open log is a no-op.
func (s *Service) Stop(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if _, err := s.store.CloseTimeLog(ctx, task.ID, now, stopNote); err != nil {
		return nil, err
	}
	if task.Status == models.StatusRunning {
		if err := s.store.SetTaskStatus(ctx, task.ID, models.StatusPlanned, now); err != nil {
			return nil, err
		}
	}
	return s.changed(ctx, task.ID)
}

// MarkDone sets the task to Done.
func (s *Service) MarkDone(ctx context.Context, id string) (*models.Task, error) {
	return s.setStatus(ctx, id, models.StatusDone)
}

// Reopen sets the task back to Planned.
func (s *Service) Reopen(ctx context.Context, id string) (*models.Task, error) {
	return s.setStatus(ctx, id, models.StatusPlanned)
}

func (s *Service) setStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetTaskStatus(ctx, task.ID, status, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.changed(ctx, task.ID)
}

// AddTicketMinutes adds delta to the booked minutes. Negative deltas may
// take the total below zero.
func (s *Service) AddTicketMinutes(ctx context.Context, id string, delta int) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.AddTicketMinutes(ctx, task.ID, delta, s.now().UTC()); err != nil {
		return nil, notFoundAs(err, taskNotFound(task.ID))
	}
	return s.changed(ctx, task.ID)
}

// TrackedDuration sums the time logs of a task. Open logs count up to now.
func (s *Service) TrackedDuration(ctx context.Context, id string) (time.Duration, error) {
	logs, err := s.store.ListTimeLogs(ctx, id)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	var total time.Duration
	for _, l := range logs {
		total += l.Duration(now)
	}
	return total, nil
}

// TimeLogs returns the time logs of a task.
func (s *Service) TimeLogs(ctx context.Context, id string) ([]models.TimeLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTimeLogs(ctx, id)
}

func (s *Service) changed(ctx context.Context, id string) (*models.Task, error) {
	s.publish(notify.TasksChanged, id)
	return s.Get(ctx, id)
}
