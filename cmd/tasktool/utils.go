package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tasktool/internal/models"
)

var localTimeLayouts = []string{
	models.LocalLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTimeArg reads a local time. A bare "15:04" is taken on the day of now.
func parseTimeArg(raw string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errors.New("time is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(time.Local), nil
	}
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	if clock, err := time.ParseInLocation("15:04", value, time.Local); err == nil {
		n := now.In(time.Local)
		return time.Date(n.Year(), n.Month(), n.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use HH:MM or YYYY-MM-DD HH:MM)", raw)
}

// optionalTimeArg returns nil for an empty value.
func optionalTimeArg(raw string, now time.Time) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseTimeArg(raw, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseSegmentID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid segment id %q", raw)
	}
	return id, nil
}

// dayArg returns the optional day argument, or "" for today.
func dayArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

func setIfNotEmpty(values url.Values, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	values.Set(key, value)
}

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != count {
			return errors.New(message)
		}
		return nil
	}
}

func requireID(cmd *cobra.Command, args []string) error {
	return requireExactlyArgs(1, "id is required")(cmd, args)
}

func optionalDay(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("at most one day (YYYY-MM-DD) is accepted")
	}
	return nil
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func boolText(v bool) string {
	return strconv.FormatBool(v)
}
