package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, map[string]int{"net_minutes": 480}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"net_minutes\":480}\n" {
		t.Fatalf("unexpected json: %q", got)
	}
}

func TestTableAlignsColumns(t *testing.T) {
	table := Table{
		Headers: []string{"Day", "Net"},
		Rows: [][]string{
			{"2024-01-15", "8h 00m"},
			{"2024-01-16", "7h 30m"},
		},
		Footer: []string{"Total", "15h 30m"},
	}
	lines := strings.Split(table.Render(), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	col := strings.Index(lines[1], "8h")
	if col <= 0 {
		t.Fatalf("missing net column in %q", lines[1])
	}
	if !strings.HasPrefix(lines[0][col:], "Net") {
		t.Fatalf("header not aligned with rows: %q", lines)
	}
	if !strings.HasPrefix(lines[3], "Total") {
		t.Fatalf("unexpected footer: %q", lines[3])
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (Table{}).Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
