package models

import (
	"testing"
	"time"
)

func TestParseTaskStatus(t *testing.T) {
	got, err := ParseTaskStatus(" running ")
	if err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if got != StatusRunning {
		t.Fatalf("expected %q, got %q", StatusRunning, got)
	}

	if _, err := ParseTaskStatus("invalid"); err == nil {
		t.Fatal("expected invalid status error")
	}
	if _, err := ParseTaskStatus(""); err == nil {
		t.Fatal("expected empty status error")
	}
}

func TestParseDayType(t *testing.T) {
	tests := []struct {
		raw     string
		want    DayType
		wantErr bool
	}{
		{raw: "", want: DayNormal},
		{raw: "normal", want: DayNormal},
		{raw: "am", want: DayAM},
		{raw: " UL ", want: DayUL},
		{raw: "holiday", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDayType(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDayType(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDayType(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDayType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestZeroesTarget(t *testing.T) {
	if DayNormal.ZeroesTarget() {
		t.Fatal("normal day must keep target")
	}
	if !DayAM.ZeroesTarget() || !DayUL.ZeroesTarget() {
		t.Fatal("AM and UL must zero target")
	}
}

func TestTaskIsOnDay(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	at := func(d, h int) *time.Time {
		v := time.Date(2024, 1, d, h, 0, 0, 0, time.Local)
		return &v
	}

	tests := []struct {
		name  string
		task  Task
		onDay bool
	}{
		{name: "no start", task: Task{}, onDay: false},
		{name: "same day", task: Task{StartLocal: at(15, 9)}, onDay: true},
		{name: "spans", task: Task{StartLocal: at(14, 9), EndLocal: at(16, 9)}, onDay: true},
		{name: "ends before", task: Task{StartLocal: at(14, 9), EndLocal: at(14, 10)}, onDay: false},
		{name: "next day", task: Task{StartLocal: at(16, 0)}, onDay: false},
	}
	for _, tt := range tests {
		if got := tt.task.IsOnDay(day); got != tt.onDay {
			t.Fatalf("%s: IsOnDay = %v, want %v", tt.name, got, tt.onDay)
		}
	}
}

func TestTimeLogDurationSkipsInverted(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)
	if got := (TimeLog{Start: start, End: &end}).Duration(start); got != 0 {
		t.Fatalf("expected 0 for inverted log, got %v", got)
	}
	if got := (TimeLog{Start: start}).Duration(start.Add(10 * time.Minute)); got != 10*time.Minute {
		t.Fatalf("expected open log to run until now, got %v", got)
	}
}
