package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL           = "http://127.0.0.1:7341"
	DefaultDBFileName       = ".tasktool.db"
	DefaultSettingsFileName = ".tasktool.settings.yaml"
	DefaultLogLevel         = "debug"

	CalendarBackendDir  = "dir"
	CalendarBackendNone = "none"

	DefaultCalendarDirName        = ".tasktool-calendar"
	DefaultCalendarTimeoutSeconds = 20
	DefaultReportTopTasks         = 5

	configFileName  = ".tasktool.toml"
	configDirEnvKey = "TASKTOOL_CONFIG_DIR"
	envFileEnvKey   = "TASKTOOL_ENV_FILE"
)

// CalendarConfig selects and tunes the calendar backend.
type CalendarConfig struct {
	Backend        string `toml:"backend"`
	Dir            string `toml:"dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ReportsConfig tunes report generation.
type ReportsConfig struct {
	TopTasks int `toml:"top_tasks"`
}

// Config defines runtime configuration for tasktool.
type Config struct {
	APIURL       string         `toml:"api_url"`
	DBPath       string         `toml:"db_path"`
	SettingsPath string         `toml:"settings_path"`
	LogLevel     string         `toml:"log_level"`
	Calendar     CalendarConfig `toml:"calendar"`
	Reports      ReportsConfig  `toml:"reports"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Calendar: CalendarConfig{
			Backend:        CalendarBackendDir,
			TimeoutSeconds: DefaultCalendarTimeoutSeconds,
		},
		Reports: ReportsConfig{TopTasks: DefaultReportTopTasks},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

// loadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set.
func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv(envFileEnvKey))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"settings_path",
	"log_level",
	"calendar.backend",
	"calendar.dir",
	"calendar.timeout_seconds",
	"reports.top_tasks",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "settings_path":
		return c.SettingsPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "calendar.backend":
		return c.Calendar.Backend, nil
	case "calendar.dir":
		return c.Calendar.Dir, nil
	case "calendar.timeout_seconds":
		return strconv.Itoa(c.Calendar.TimeoutSeconds), nil
	case "reports.top_tasks":
		return strconv.Itoa(c.Reports.TopTasks), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the env file and config file and applies env overrides.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := Default()

	path, err := GlobalPath()
	if err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if apiURL := os.Getenv("TASKTOOL_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := os.Getenv("TASKTOOL_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if settingsPath := os.Getenv("TASKTOOL_SETTINGS"); settingsPath != "" {
		cfg.SettingsPath = settingsPath
	}
	if backend := strings.TrimSpace(os.Getenv("TASKTOOL_CALENDAR_BACKEND")); backend != "" {
		cfg.Calendar.Backend = backend
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "calendar.timeout_seconds", "reports.top_tasks":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return int64(parsed), nil
	case "calendar.backend":
		switch strings.ToLower(value) {
		case CalendarBackendDir, CalendarBackendNone:
			return strings.ToLower(value), nil
		default:
			return nil, fmt.Errorf("%s must be %q or %q", key, CalendarBackendDir, CalendarBackendNone)
		}
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

// normalizeDefaults fills paths relative to the home directory and
// restores defaults for non-positive numbers.
func (c *Config) normalizeDefaults() {
	home, _ := os.UserHomeDir()
	if c.DBPath == "" && home != "" {
		c.DBPath = filepath.Join(home, DefaultDBFileName)
	}
	if c.SettingsPath == "" && home != "" {
		c.SettingsPath = filepath.Join(home, DefaultSettingsFileName)
	}
	if c.Calendar.Dir == "" && home != "" {
		c.Calendar.Dir = filepath.Join(home, DefaultCalendarDirName)
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Calendar.Backend = strings.ToLower(strings.TrimSpace(c.Calendar.Backend))
	if c.Calendar.Backend == "" {
		c.Calendar.Backend = CalendarBackendDir
	}
	if c.Calendar.TimeoutSeconds <= 0 {
		c.Calendar.TimeoutSeconds = DefaultCalendarTimeoutSeconds
	}
	if c.Reports.TopTasks <= 0 {
		c.Reports.TopTasks = DefaultReportTopTasks
	}
}
