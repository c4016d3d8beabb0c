package main

import (
	"context"
	"fmt"
	"net"
	"testing"

	"tasktool/internal/api"
)

func TestFormatCLIError_NetworkGuidance(t *testing.T) {
	err := &net.DNSError{Err: "dial tcp: connection refused", Name: "127.0.0.1", IsTemporary: true}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: ensure a tasktool server is running at TASKTOOL_API_URL.") {
		t.Fatalf("expected connectivity guidance, got %v", lines)
	}
	if !containsLine(lines, "hint: start local server manually with: tasktool srv") {
		t.Fatalf("expected manual-start guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIUnknownServiceGuidance(t *testing.T) {
	err := &api.APIError{Status: 404, Message: "api error: 404 Not Found"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: verify TASKTOOL_API_URL points to a tasktool server.") {
		t.Fatalf("expected api-url guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIInternalGuidance(t *testing.T) {
	err := &api.APIError{Status: 500, Code: "internal", ErrorCode: 4001, Message: "internal error"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: server returned an internal error; check server logs for details.") {
		t.Fatalf("expected internal-error guidance, got %v", lines)
	}
}

func TestFormatCLIError_CalendarGuidance(t *testing.T) {
	err := &api.APIError{Status: 409, Code: "conflict", ErrorCode: 5001, Message: "calendar sync is disabled"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: enable calendar sync with: tasktool settings set calendar_sync_enabled true") {
		t.Fatalf("expected calendar guidance, got %v", lines)
	}

	err = &api.APIError{Status: 503, Code: "unavailable", ErrorCode: 5003, Message: "calendar not reachable"}
	lines = formatCLIError(err)
	if containsLine(lines, "hint: server returned an internal error; check server logs for details.") {
		t.Fatalf("calendar errors should not suggest server logs, got %v", lines)
	}
}

func TestFormatCLIError_TimeoutGuidance(t *testing.T) {
	lines := formatCLIError(fmt.Errorf("get task: %w", context.DeadlineExceeded))
	if !containsLine(lines, "hint: request timed out; check server health or increase TASKTOOL_HTTP_TIMEOUT.") {
		t.Fatalf("expected timeout guidance, got %v", lines)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
