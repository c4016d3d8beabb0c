// Package timecalc converts attendance and break records into worked,
// target and overtime minutes.
package timecalc

import (
	"fmt"
	"strings"
	"time"

	"tasktool/internal/models"
)

// NetMinutes returns presence minutes minus closed break minutes. It is 0
// when come or go is missing and may be negative when go precedes come.
func NetMinutes(come, goAt *time.Time, breaks []models.Break) int {
	if come == nil || goAt == nil {
		return 0
	}
	net := minutes(goAt.Sub(*come))
	for _, b := range breaks {
		if b.End == nil {
			continue
		}
		net -= minutes(b.End.Sub(b.Start))
	}
	return net
}

// TargetMinutes returns the expected minutes for a day.
func TargetMinutes(dayType models.DayType, weekday time.Weekday, targets models.WeekdayTargets) int {
	if dayType.ZeroesTarget() {
		return 0
	}
	return targets.For(weekday)
}

// Overtime is net minus target.
func Overtime(net, target int) int {
	return net - target
}

// FormatMinutes renders minutes as "2h 05m". Only the hour part carries a
// sign, so -65 renders as "-1h 05m" and -30 as "0h 30m".
func FormatMinutes(m int) string {
	rest := m % 60
	if rest < 0 {
		rest = -rest
	}
	return fmt.Sprintf("%dh %02dm", m/60, rest)
}

// FormatClock renders an elapsed duration as HH:MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// ParseDuration accepts "45m" and "2h" shorthands, "h:mm" and "h:mm:ss"
// spans, and Go duration syntax such as "1h30m".
func ParseDuration(raw string) (time.Duration, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	if d, ok := parseSuffixed(value); ok {
		return d, true
	}
	if d, ok := parseSpan(value); ok {
		return d, true
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	return d, true
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}
