// Package format renders CLI output as JSON or aligned text tables.
package format

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes JSON output.
type JSONFormatter struct {
	Indent bool
}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	cellStyle   = lipgloss.NewStyle()
	footerStyle = lipgloss.NewStyle().Bold(true)
)

const columnGap = 2

// Table is a text table with columns sized to their widest cell.
type Table struct {
	Headers []string
	Rows    [][]string
	Footer  []string
	// Right lists the column indexes rendered right-aligned.
	Right []int
}

// Render returns the table as lines separated by newlines.
func (t Table) Render() string {
	widths := t.widths()
	if len(widths) == 0 {
		return ""
	}
	lines := make([]string, 0, len(t.Rows)+2)
	if len(t.Headers) > 0 {
		lines = append(lines, t.renderRow(t.Headers, widths, headerStyle))
	}
	for _, row := range t.Rows {
		lines = append(lines, t.renderRow(row, widths, cellStyle))
	}
	if len(t.Footer) > 0 {
		lines = append(lines, t.renderRow(t.Footer, widths, footerStyle))
	}
	return strings.Join(lines, "\n")
}

// Write renders the table to w. The payload argument is ignored.
func (t Table) Write(w io.Writer, _ any) error {
	out := t.Render()
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

func (t Table) widths() []int {
	var widths []int
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	measure(t.Footer)
	return widths
}

func (t Table) renderRow(row []string, widths []int, style lipgloss.Style) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		s := style.Width(width)
		if i < len(widths)-1 {
			// Width includes padding.
			s = s.Width(width + columnGap).PaddingRight(columnGap)
		}
		if t.isRight(i) {
			s = s.Align(lipgloss.Right)
		}
		cells[i] = s.Render(value)
	}
	return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ")
}

func (t Table) isRight(col int) bool {
	for _, c := range t.Right {
		if c == col {
			return true
		}
	}
	return false
}
