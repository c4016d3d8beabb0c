// Package workday records attendance and breaks per calendar day.
package workday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tasktool/internal/models"
	"tasktool/internal/notify"
	"tasktool/internal/store"
)

// ErrValidation matches invalid day keys, day types and break input.
var ErrValidation = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// DayRecord is a work day with its breaks.
type DayRecord struct {
	models.WorkDay
	Breaks []models.Break `json:"breaks"`
}

// Ledger owns come/go stamps, day markers and breaks.
type Ledger struct {
	store  store.DayStore
	hub    *notify.Hub
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithHub publishes day changes to hub.
func WithHub(hub *notify.Hub) Option {
	return func(l *Ledger) { l.hub = hub }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger constructs a Ledger.
func NewLedger(st store.DayStore, opts ...Option) *Ledger {
	l := &Ledger{store: st, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "workday")
	return l
}

// Today returns the day key of the current local date.
func (l *Ledger) Today() string {
	return models.DayKey(l.now().In(time.Local))
}

// GetOrCreateDay returns the day, storing a default row when absent.
func (l *Ledger) GetOrCreateDay(ctx context.Context, day string) (*models.WorkDay, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	return l.store.EnsureWorkDay(ctx, key)
}

// Day returns the stored day or its default without creating a row.
func (l *Ledger) Day(ctx context.Context, day string) (DayRecord, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return DayRecord{}, err
	}
	wd, err := l.store.GetWorkDay(ctx, key)
	if err != nil {
		return DayRecord{}, err
	}
	record := DayRecord{WorkDay: models.DefaultWorkDay(key)}
	if wd != nil {
		record.WorkDay = *wd
	}
	record.Breaks, err = l.store.ListBreaks(ctx, key)
	if err != nil {
		return DayRecord{}, err
	}
	return record, nil
}

// SetCome stamps now as today's arrival.
func (l *Ledger) SetCome(ctx context.Context) (*models.WorkDay, error) {
	now := l.now().In(time.Local)
	return l.SetComeAt(ctx, models.DayKey(now), now)
}

// SetGo stamps now as today's leaving time.
func (l *Ledger) SetGo(ctx context.Context) (*models.WorkDay, error) {
	now := l.now().In(time.Local)
	return l.SetGoAt(ctx, models.DayKey(now), now)
}

// SetComeAt stores an explicit arrival time for day.
func (l *Ledger) SetComeAt(ctx context.Context, day string, at time.Time) (*models.WorkDay, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, invalid("come time is required")
	}
	if err := l.store.SetCome(ctx, key, at.In(time.Local)); err != nil {
		return nil, err
	}
	return l.changed(ctx, key)
}

// SetGoAt stores an explicit leaving time for day.
func (l *Ledger) SetGoAt(ctx context.Context, day string, at time.Time) (*models.WorkDay, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, invalid("go time is required")
	}
	if err := l.store.SetGo(ctx, key, at.In(time.Local)); err != nil {
		return nil, err
	}
	return l.changed(ctx, key)
}

// StartBreak opens a break at now on day. An empty note means "pause".
func (l *Ledger) StartBreak(ctx context.Context, day, note string) (*models.Break, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	b, err := l.store.StartBreak(ctx, key, l.now().In(time.Local), strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	l.publish(key)
	return b, nil
}

// EndBreak closes the most recently opened break of day. It reports
// whether an open break existed.
func (l *Ledger) EndBreak(ctx context.Context, day string) (bool, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return false, err
	}
	closed, err := l.store.EndBreak(ctx, key, l.now().In(time.Local))
	if err != nil {
		return false, err
	}
	if closed {
		l.publish(key)
	}
	return closed, nil
}

// SaveManualDay replaces come, go and the breaks of day atomically.
func (l *Ledger) SaveManualDay(ctx context.Context, day string, come, goAt *time.Time, breaks []models.Break) (DayRecord, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return DayRecord{}, err
	}
	cleaned := make([]models.Break, 0, len(breaks))
	for i, b := range breaks {
		if b.Start.IsZero() {
			return DayRecord{}, invalid("break %d: start is required", i+1)
		}
		b.Day = key
		b.Start = b.Start.In(time.Local)
		b.End = inLocal(b.End)
		cleaned = append(cleaned, b)
	}
	if err := l.store.SaveManualDay(ctx, key, inLocal(come), inLocal(goAt), cleaned); err != nil {
		l.logger.Error("manual day save failed", "day", key, "error", err)
		return DayRecord{}, err
	}
	l.publish(key)
	return l.Day(ctx, key)
}

// SetDayMarkers sets day type and the br/ho flags. The day type matches
// case-insensitively and an empty value means Normal.
func (l *Ledger) SetDayMarkers(ctx context.Context, day, dayType string, isBr, isHo bool) (*models.WorkDay, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	parsed, err := models.ParseDayType(dayType)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if err := l.store.SetDayMarkers(ctx, key, parsed, isBr, isHo); err != nil {
		return nil, err
	}
	return l.changed(ctx, key)
}

// Breaks lists the breaks of day ordered by start.
func (l *Ledger) Breaks(ctx context.Context, day string) ([]models.Break, error) {
	key, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	return l.store.ListBreaks(ctx, key)
}

// DaysInRange returns one record per day in [from, to], filling days
// without a row with defaults.
func (l *Ledger) DaysInRange(ctx context.Context, from, to string) ([]DayRecord, error) {
	start, err := models.ParseDayKey(from)
	if err != nil {
		return nil, invalid("invalid day: %s", from)
	}
	end, err := models.ParseDayKey(to)
	if err != nil {
		return nil, invalid("invalid day: %s", to)
	}
	if end.Before(start) {
		return nil, invalid("range end %s is before start %s", to, from)
	}
	fromKey, toKey := models.DayKey(start), models.DayKey(end)
	days, err := l.store.ListWorkDays(ctx, fromKey, toKey)
	if err != nil {
		return nil, err
	}
	breaks, err := l.store.ListBreaksInRange(ctx, fromKey, toKey)
	if err != nil {
		return nil, err
	}

	var out []DayRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := models.DayKey(d)
		record := DayRecord{WorkDay: models.DefaultWorkDay(key), Breaks: breaks[key]}
		if wd, ok := days[key]; ok {
			record.WorkDay = wd
		}
		out = append(out, record)
	}
	return out, nil
}

func (l *Ledger) changed(ctx context.Context, key string) (*models.WorkDay, error) {
	l.publish(key)
	return l.store.GetWorkDay(ctx, key)
}

func (l *Ledger) publish(key string) {
	l.hub.Publish(notify.Event{Topic: notify.DayChanged, Key: key})
}

func normalizeDay(day string) (string, error) {
	t, err := models.ParseDayKey(day)
	if err != nil {
		return "", invalid("invalid day: %s (expected YYYY-MM-DD)", strings.TrimSpace(day))
	}
	return models.DayKey(t), nil
}

func inLocal(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.In(time.Local)
	return &v
}
