package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseDuration parses the moderator duration syntax: a positive integer followed by
// s, m, h or d.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, ErrInvalidDuration
	}
	unit, ok := durationUnits[s[len(s)-1]]
	if !ok {
		return 0, ErrInvalidDuration
	}
	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidDuration
	}
	if n > int64((1<<63-1)/unit) {
		return 0, ErrInvalidDuration
	}
	return time.Duration(n) * unit, nil
}

// FormatDuration renders d in the largest unit that divides it exactly.
func FormatDuration(d time.Duration) string {
	for _, u := range []struct {
		unit   time.Duration
		suffix string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
	} {
		if d >= u.unit && d%u.unit == 0 {
			return fmt.Sprintf("%d%s", d/u.unit, u.suffix)
		}
	}
	return fmt.Sprintf("%ds", int64(d.Round(time.Second)/time.Second))
}
