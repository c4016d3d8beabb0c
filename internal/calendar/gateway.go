package calendar

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultCategory = "FocusBlock"
	DefaultTimeout  = 20 * time.Second

	subjectPrefix = "Focus: "

	testTitle     = "TaskTool Test"
	testBody      = "Test appointment"
	testLeadTime  = 5 * time.Minute
	testBlockSpan = 5 * time.Minute
)

// SyncSettings supplies the user settings that gate calendar calls.
type SyncSettings interface {
	CalendarSyncEnabled() bool
	CalendarCategory() string
}

// Gateway validates requests and forwards them to the backend on a
// dedicated worker.
type Gateway struct {
	backend  Backend
	settings SyncSettings
	worker   *Worker
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout bounds how long a caller waits for one backend call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway starts a gateway with its own worker. Close releases it.
func NewGateway(backend Backend, settings SyncSettings, opts ...Option) *Gateway {
	if backend == nil {
		backend = Unavailable{}
	}
	g := &Gateway{
		backend:  backend,
		settings: settings,
		worker:   NewWorker(),
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "calendar")
	return g
}

// Close stops the worker.
func (g *Gateway) Close() {
	g.worker.Close()
}

// BackendName names the configured backend.
func (g *Gateway) BackendName() string {
	return g.backend.Name()
}

// Enabled reports whether calendar sync is switched on.
func (g *Gateway) Enabled() bool {
	return g.settings != nil && g.settings.CalendarSyncEnabled()
}

// UpsertBlock creates or replaces the block identified by existingID. On
// any failure existingID is returned unchanged together with the error.
// Invalid requests never reach the backend.
func (g *Gateway) UpsertBlock(ctx context.Context, existingID, title, body string, start, end time.Time) (string, error) {
	if !g.Enabled() {
		return existingID, ErrSyncDisabled
	}
	if strings.TrimSpace(title) == "" {
		return existingID, ErrMissingTitle
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return existingID, ErrInvalidRange
	}

	block := Block{
		Subject:     subjectPrefix + title,
		Body:        body,
		Start:       start,
		End:         end,
		Category:    g.category(),
		BusyStatus:  BusyStatusBusy,
		ReminderSet: false,
	}

	var entryID string
	err := g.call(ctx, "UpsertBlock", start, end, func(ctx context.Context) error {
		id, err := g.backend.Save(ctx, existingID, block)
		if err != nil {
			return err
		}
		entryID = id
		return nil
	})
	if err != nil {
		return existingID, err
	}
	return entryID, nil
}

// DeleteBlock removes the block. A disabled sync or an empty id has
// nothing to delete and succeeds.
func (g *Gateway) DeleteBlock(ctx context.Context, entryID string) error {
	if !g.Enabled() || strings.TrimSpace(entryID) == "" {
		return nil
	}
	return g.call(ctx, "DeleteBlock", time.Time{}, time.Time{}, func(ctx context.Context) error {
		return g.backend.Remove(ctx, entryID)
	})
}

// TestConnection writes a short block a few minutes ahead and deletes it
// again. Both steps must succeed.
func (g *Gateway) TestConnection(ctx context.Context) error {
	start := g.now().Add(testLeadTime)
	end := start.Add(testBlockSpan)

	entryID, err := g.UpsertBlock(ctx, "", testTitle, testBody, start, end)
	if err != nil {
		return err
	}
	return g.DeleteBlock(ctx, entryID)
}

func (g *Gateway) category() string {
	if g.settings == nil {
		return DefaultCategory
	}
	if c := strings.TrimSpace(g.settings.CalendarCategory()); c != "" {
		return c
	}
	return DefaultCategory
}

func (g *Gateway) call(ctx context.Context, op string, start, end time.Time, fn func(ctx context.Context) error) error {
	began := g.now()
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	err := g.worker.Do(callCtx, func(ctx context.Context) error {
		if !g.backend.Available() {
			return ErrUnavailable
		}
		return fn(ctx)
	})
	cancel()
	if err == nil {
		g.logger.Debug("calendar call", "op", op, "backend", g.backend.Name(), "duration", g.now().Sub(began))
		return nil
	}

	backendErr := &BackendError{Op: op, Backend: g.backend.Name(), Err: err}
	logFailure(g.logger, backendErr, !errors.Is(err, ErrUnavailable), start, end, g.now().Sub(began))
	return backendErr
}
