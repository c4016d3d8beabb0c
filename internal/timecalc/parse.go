package timecalc

import (
	"strconv"
	"strings"
	"time"
)

func parseSuffixed(value string) (time.Duration, bool) {
	lower := strings.ToLower(value)
	var unit time.Duration
	switch {
	case strings.HasSuffix(lower, "m"):
		unit = time.Minute
	case strings.HasSuffix(lower, "h"):
		unit = time.Hour
	default:
		return 0, false
	}
	number := strings.TrimSpace(lower[:len(lower)-1])
	n, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(n * float64(unit)), true
}

func parseSpan(value string) (time.Duration, bool) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total += time.Duration(n) * units[i]
	}
	return total, true
}
