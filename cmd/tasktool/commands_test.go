package main

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"tasktool/internal/config"
)

func collectLeafCommandPaths(cmd *cobra.Command) []string {
	var out []string
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		children := c.Commands()
		if len(children) == 0 || c.RunE != nil {
			if c != cmd {
				out = append(out, strings.TrimPrefix(c.CommandPath(), cmd.Name()+" "))
			}
		}
		for _, child := range children {
			if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
				continue
			}
			walk(child)
		}
	}
	walk(cmd)
	slices.Sort(out)
	return out
}

func TestCommandSurface(t *testing.T) {
	cfg := config.Default()
	got := collectLeafCommandPaths(newRootCmd(&cfg))

	want := []string{
		"calendar status", "calendar test",
		"config get", "config path", "config set",
		"day break-end", "day break-start", "day come", "day go", "day list", "day markers", "day set", "day show",
		"migrate",
		"reminder", "reminder dismiss", "reminder snooze",
		"report day", "report month", "report today", "report week",
		"segment add", "segment delete", "segment list", "segment sync", "segment sync-all", "segment unsync", "segment update",
		"settings set", "settings show",
		"srv",
		"task add", "task book", "task delete", "task done", "task elapsed", "task list", "task open", "task pause",
		"task quick", "task reopen", "task show", "task start", "task stop", "task sync", "task unsync", "task update",
		"watch",
	}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("command surface mismatch\ngot:  %v\nwant: %v", got, want)
	}
}

func TestBuildTaskCreateRequestDuration(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)
	opts := &taskAddOptions{start: "09:00", duration: "1:30", tags: "work"}
	cmd := newTaskAddCmd(nil, new(bool))

	req, err := buildTaskCreateRequest(cmd, opts, []string{"Write", "report"}, now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Title != "Write report" {
		t.Fatalf("unexpected title %q", req.Title)
	}
	if req.Start == nil || req.End == nil {
		t.Fatalf("expected start and end, got %+v", req)
	}
	if got := req.End.Sub(*req.Start); got != 90*time.Minute {
		t.Fatalf("expected 90m block, got %s", got)
	}
	if req.Priority != nil {
		t.Fatal("priority should be unset without the flag")
	}
}

func TestBuildTaskCreateRequestErrors(t *testing.T) {
	now := time.Now()
	cmd := newTaskAddCmd(nil, new(bool))
	tests := []struct {
		name string
		opts taskAddOptions
		args []string
	}{
		{name: "missing title", args: nil},
		{name: "duration without start", opts: taskAddOptions{duration: "30m"}, args: []string{"x"}},
		{name: "end and duration", opts: taskAddOptions{start: "09:00", end: "10:00", duration: "30m"}, args: []string{"x"}},
		{name: "bad duration", opts: taskAddOptions{start: "09:00", duration: "soon"}, args: []string{"x"}},
		{name: "bad start", opts: taskAddOptions{start: "morning"}, args: []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if _, err := buildTaskCreateRequest(cmd, &opts, tt.args, now); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildTaskUpdateRequestUsesChangedFlags(t *testing.T) {
	opts := &taskUpdateOptions{}
	cmd := newTaskUpdateCmd(nil, new(bool))
	if err := cmd.ParseFlags([]string{"--title", "New title", "--url", "", "--clear-start"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	opts.title, _ = cmd.Flags().GetString("title")
	opts.ticketURL, _ = cmd.Flags().GetString("url")
	opts.clearStart, _ = cmd.Flags().GetBool("clear-start")

	req, err := buildTaskUpdateRequest(cmd, opts, time.Now())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Title == nil || *req.Title != "New title" {
		t.Fatalf("expected title patch, got %+v", req.Title)
	}
	if req.TicketURL == nil || *req.TicketURL != "" {
		t.Fatal("expected explicit empty url to clear the ticket")
	}
	if !req.ClearStart || req.Start != nil || req.Description != nil {
		t.Fatalf("unexpected patch %+v", req)
	}
}

func TestBuildTaskUpdateRequestRejectsEmpty(t *testing.T) {
	cmd := newTaskUpdateCmd(nil, new(bool))
	if _, err := buildTaskUpdateRequest(cmd, &taskUpdateOptions{}, time.Now()); err == nil {
		t.Fatal("expected error for empty update")
	}
}

func TestBuildSegmentCreateRequest(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)

	req, err := buildSegmentCreateRequest("2024-01-16 10:00", "11:15", "", "review", now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	wantEnd := time.Date(2024, 1, 16, 11, 15, 0, 0, time.Local)
	if !req.End.Equal(wantEnd) {
		t.Fatalf("end clock should use the start day, got %v", req.End)
	}

	req, err = buildSegmentCreateRequest("10:00", "", "45m", "", now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.End.Sub(req.Start) != 45*time.Minute {
		t.Fatalf("expected 45m, got %s", req.End.Sub(req.Start))
	}

	if _, err := buildSegmentCreateRequest("10:00", "", "", "", now); err == nil {
		t.Fatal("expected error without end or duration")
	}
}

func TestParseBreakArg(t *testing.T) {
	anchor := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)

	b, err := parseBreakArg("12:00-12:30=lunch", anchor)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !b.Start.Equal(time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)) || b.End == nil || b.Note != "lunch" {
		t.Fatalf("unexpected break %+v", b)
	}

	b, err = parseBreakArg("15:00-", anchor)
	if err != nil {
		t.Fatalf("parse open break: %v", err)
	}
	if b.End != nil {
		t.Fatal("expected open break")
	}

	for _, raw := range []string{"12:00", "noon-13:00", "12:00-late"} {
		if _, err := parseBreakArg(raw, anchor); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestBuildManualDayRequestAnchorsOnDay(t *testing.T) {
	req, err := buildManualDayRequest("2024-01-10", "08:00", "16:30", []string{"12:00-12:30"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Come == nil || !req.Come.Equal(time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected come %v", req.Come)
	}
	if len(req.Breaks) != 1 {
		t.Fatalf("expected one break, got %d", len(req.Breaks))
	}
	if _, err := buildManualDayRequest("10.01.2024", "", "", nil); err == nil {
		t.Fatal("expected invalid day error")
	}
}
