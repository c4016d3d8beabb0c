package main

import (
	"context"
	"errors"
	"net"

	"tasktool/internal/api"
	"tasktool/internal/server"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if apiErr, ok := api.AsAPIError(err); ok {
		switch apiErr.ErrorCode {
		case server.ErrCodeCalendarDisabled:
			lines = append(lines, "hint: enable calendar sync with: tasktool settings set calendar_sync_enabled true")
		case server.ErrCodeCalendarUnavailable:
			lines = append(lines, "hint: the calendar backend is unavailable; check calendar.backend and calendar.dir in the config.")
		case server.ErrCodeCalendarTimeout:
			lines = append(lines, "hint: the calendar did not answer in time; raise calendar.timeout_seconds if this persists.")
		case server.ErrCodeInvalidDay, server.ErrCodeInvalidPeriod:
			lines = append(lines, "hint: days use YYYY-MM-DD and months use YYYY-MM.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify TASKTOOL_API_URL points to a tasktool server.")
		}
		if apiErr.Status >= 500 && !apiErr.Calendar() {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		if apiErr.Retryable() {
			lines = append(lines, "hint: the failure may be temporary; retry the command.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase TASKTOOL_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a tasktool server is running at TASKTOOL_API_URL.",
			"hint: start local server manually with: tasktool srv",
			"hint: you can increase TASKTOOL_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
