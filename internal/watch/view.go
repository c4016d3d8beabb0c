package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tasktool/internal/timecalc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("tasktool"))
	b.WriteString("\n\n")

	b.WriteString(m.todayView())
	b.WriteString("\n")
	b.WriteString(m.runningView())
	b.WriteString("\n")
	b.WriteString(m.remindersView())

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.Err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("s: snooze  d: dismiss  r: refresh  q: quit"))
	return boxStyle.Render(b.String())
}

func (m *Model) todayView() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Today"))
	b.WriteString("\n")
	if m.Today == nil {
		b.WriteString(helpStyle.Render("  loading..."))
		b.WriteString("\n")
		return b.String()
	}
	day := m.Today.Today
	come, goAt := "--:--", "--:--"
	if day.Come != nil {
		come = day.Come.Format("15:04")
	}
	if day.Go != nil {
		goAt = day.Go.Format("15:04")
	}
	fmt.Fprintf(&b, "  %s %s  come %s  go %s\n", day.Weekday, day.Day, come, goAt)
	fmt.Fprintf(&b, "  net %s  target %s  overtime %s\n",
		valueStyle.Render(timecalc.FormatMinutes(day.NetMinutes)),
		valueStyle.Render(timecalc.FormatMinutes(day.TargetMinutes)),
		valueStyle.Render(timecalc.FormatMinutes(day.OvertimeMinutes)))
	fmt.Fprintf(&b, "  month overtime %s\n", valueStyle.Render(timecalc.FormatMinutes(m.Today.MonthToDateOvertime)))
	return b.String()
}

func (m *Model) runningView() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Running"))
	b.WriteString("\n")
	if len(m.Running) == 0 {
		b.WriteString(helpStyle.Render("  nothing running"))
		b.WriteString("\n")
		return b.String()
	}
	for _, rt := range m.Running {
		fmt.Fprintf(&b, "  %s  %s\n", timerRunningStyle.Render(timecalc.FormatClock(m.Elapsed(rt))), rt.Title)
	}
	return b.String()
}

func (m *Model) remindersView() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Reminders"))
	b.WriteString("\n")
	if len(m.Reminders) == 0 {
		b.WriteString(helpStyle.Render("  none"))
		b.WriteString("\n")
		return b.String()
	}
	for _, r := range m.Reminders {
		line := fmt.Sprintf("  %s  %s", r.Start.Format("15:04"), r.Title)
		if r.Snoozed {
			line += helpStyle.Render(" (snoozed)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
