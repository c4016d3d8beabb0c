// Package settings persists the user-facing application settings.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"tasktool/internal/models"
)

const (
	DefaultCategoryName        = "FocusBlock"
	DefaultReminderLeadMinutes = 2
	DefaultDateTimeFormat      = "2006-01-02 15:04"
	DefaultFridayTargetMinutes = 300
)

// AppSettings is the flat settings record stored on disk.
type AppSettings struct {
	CalendarSyncEnabled    bool   `yaml:"calendar_sync_enabled" json:"calendar_sync_enabled"`
	CalendarCategoryName   string `yaml:"calendar_category_name" json:"calendar_category_name"`
	ReminderLeadMinutes    int    `yaml:"reminder_lead_minutes" json:"reminder_lead_minutes"`
	DateTimeFormat         string `yaml:"date_time_format" json:"date_time_format"`
	MondayTargetMinutes    int    `yaml:"monday_target_minutes" json:"monday_target_minutes"`
	TuesdayTargetMinutes   int    `yaml:"tuesday_target_minutes" json:"tuesday_target_minutes"`
	WednesdayTargetMinutes int    `yaml:"wednesday_target_minutes" json:"wednesday_target_minutes"`
	ThursdayTargetMinutes  int    `yaml:"thursday_target_minutes" json:"thursday_target_minutes"`
	FridayTargetMinutes    int    `yaml:"friday_target_minutes" json:"friday_target_minutes"`
	SaturdayTargetMinutes  int    `yaml:"saturday_target_minutes" json:"saturday_target_minutes"`
	SundayTargetMinutes    int    `yaml:"sunday_target_minutes" json:"sunday_target_minutes"`
}

// Default returns the settings used when no file exists.
func Default() AppSettings {
	return AppSettings{
		CalendarSyncEnabled:    true,
		CalendarCategoryName:   DefaultCategoryName,
		ReminderLeadMinutes:    DefaultReminderLeadMinutes,
		DateTimeFormat:         DefaultDateTimeFormat,
		MondayTargetMinutes:    480,
		TuesdayTargetMinutes:   480,
		WednesdayTargetMinutes: 480,
		ThursdayTargetMinutes:  480,
		FridayTargetMinutes:    DefaultFridayTargetMinutes,
	}
}

// Targets returns the weekday target minutes.
func (s AppSettings) Targets() models.WeekdayTargets {
	var t models.WeekdayTargets
	t[time.Monday] = s.MondayTargetMinutes
	t[time.Tuesday] = s.TuesdayTargetMinutes
	t[time.Wednesday] = s.WednesdayTargetMinutes
	t[time.Thursday] = s.ThursdayTargetMinutes
	t[time.Friday] = s.FridayTargetMinutes
	t[time.Saturday] = s.SaturdayTargetMinutes
	t[time.Sunday] = s.SundayTargetMinutes
	return t
}

// normalize resets a non-positive Friday target left by older files.
func (s *AppSettings) normalize() {
	if s.FridayTargetMinutes <= 0 {
		s.FridayTargetMinutes = DefaultFridayTargetMinutes
	}
}

// Manager owns the current settings and writes every change to disk.
type Manager struct {
	mu      sync.RWMutex
	path    string
	current AppSettings
	logger  *slog.Logger
}

// Load reads the settings file at path. A missing file is created with
// defaults; an unreadable one is logged and replaced by defaults in memory.
func Load(path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		path:   path,
		logger: logger.With("component", "settings"),
	}
	m.current = Default()

	current, found, err := readFile(path)
	switch {
	case err != nil:
		m.logger.Error("settings load failed", "path", path, "error", err)
		m.current.normalize()
	case !found:
		m.current.normalize()
		if err := m.save(); err != nil {
			m.logger.Error("settings save failed", "path", path, "error", err)
		}
	default:
		current.normalize()
		m.current = current
	}
	return m
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// Current returns a copy of the active settings.
func (m *Manager) Current() AppSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update applies fn to the settings and persists the result.
func (m *Manager) Update(fn func(*AppSettings)) (AppSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current
	fn(&next)
	m.current = next
	if err := m.save(); err != nil {
		m.logger.Error("settings save failed", "path", m.path, "error", err)
		return next, err
	}
	return next, nil
}

// CalendarSyncEnabled reports whether calendar mirroring is on.
func (m *Manager) CalendarSyncEnabled() bool {
	return m.Current().CalendarSyncEnabled
}

// CalendarCategory returns the category label for calendar blocks.
func (m *Manager) CalendarCategory() string {
	return m.Current().CalendarCategoryName
}

// ReminderLead returns how long before a start reminders fire.
func (m *Manager) ReminderLead() time.Duration {
	return time.Duration(m.Current().ReminderLeadMinutes) * time.Minute
}

// Targets returns the current weekday targets.
func (m *Manager) Targets() models.WeekdayTargets {
	return m.Current().Targets()
}

var allowedKeys = []string{
	"calendar_sync_enabled",
	"calendar_category_name",
	"reminder_lead_minutes",
	"date_time_format",
	"monday_target_minutes",
	"tuesday_target_minutes",
	"wednesday_target_minutes",
	"thursday_target_minutes",
	"friday_target_minutes",
	"saturday_target_minutes",
	"sunday_target_minutes",
}

// AllowedKeys returns the settings keys accepted by Set.
func AllowedKeys() []string {
	return allowedKeys
}

// ErrInvalidSetting matches unknown keys and unparsable values.
var ErrInvalidSetting = errors.New("invalid setting")

// Set parses value for key and persists it.
func (m *Manager) Set(key, value string) (AppSettings, error) {
	if !isAllowedKey(key) {
		return m.Current(), fmt.Errorf("%w: unknown key: %s", ErrInvalidSetting, key)
	}
	apply, err := setter(key, strings.TrimSpace(value))
	if err != nil {
		return m.Current(), fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return m.Update(apply)
}

func isAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

func setter(key, value string) (func(*AppSettings), error) {
	switch key {
	case "calendar_sync_enabled":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return func(s *AppSettings) { s.CalendarSyncEnabled = parsed }, nil
	case "calendar_category_name":
		return func(s *AppSettings) { s.CalendarCategoryName = value }, nil
	case "date_time_format":
		if value == "" {
			return nil, fmt.Errorf("%s must not be empty", key)
		}
		return func(s *AppSettings) { s.DateTimeFormat = value }, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer", key)
	}
	switch key {
	case "reminder_lead_minutes":
		return func(s *AppSettings) { s.ReminderLeadMinutes = n }, nil
	case "monday_target_minutes":
		return func(s *AppSettings) { s.MondayTargetMinutes = n }, nil
	case "tuesday_target_minutes":
		return func(s *AppSettings) { s.TuesdayTargetMinutes = n }, nil
	case "wednesday_target_minutes":
		return func(s *AppSettings) { s.WednesdayTargetMinutes = n }, nil
	case "thursday_target_minutes":
		return func(s *AppSettings) { s.ThursdayTargetMinutes = n }, nil
	case "friday_target_minutes":
		return func(s *AppSettings) { s.FridayTargetMinutes = n }, nil
	case "saturday_target_minutes":
		return func(s *AppSettings) { s.SaturdayTargetMinutes = n }, nil
	case "sunday_target_minutes":
		return func(s *AppSettings) { s.SundayTargetMinutes = n }, nil
	default:
		return nil, fmt.Errorf("unknown key: %s", key)
	}
}

func readFile(path string) (AppSettings, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AppSettings{}, false, nil
		}
		return AppSettings{}, false, err
	}
	current := Default()
	if err := yaml.Unmarshal(data, &current); err != nil {
		return AppSettings{}, false, fmt.Errorf("failed to parse settings: %w", err)
	}
	return current, true, nil
}

// save writes the settings atomically via a temp file. Callers hold mu.
func (m *Manager) save() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := yaml.Marshal(m.current)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename settings: %w", err)
	}
	return nil
}
