package market

import (
	"fmt"
	"time"
)

// IST is the exchange timezone, UTC+5:30.
var IST = time.FixedZone("IST", 19800)

// Clock is a minute-of-day cutoff parsed from "HH:MM".
type Clock int

// ParseClock parses a "HH:MM" time-of-day string.
func ParseClock(s string) (Clock, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time-of-day '%s': want HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time-of-day '%s': out of range", s)
	}
	return Clock(h*60 + m), nil
}

func minuteOfDay(t time.Time) Clock {
	t = t.In(IST)
	return Clock(t.Hour()*60 + t.Minute())
}

// Before reports whether t falls before the cutoff in IST.
func (c Clock) Before(t time.Time) bool { return minuteOfDay(t) < c }

// Reached reports whether t is at or past the cutoff in IST.
func (c Clock) Reached(t time.Time) bool { return minuteOfDay(t) >= c }

var (
	marketOpen, _  = ParseClock("09:15")
	marketClose, _ = ParseClock("15:30")
)

// IsOpen reports whether the exchange session is running: 09:15-15:30 IST
// on weekdays.
func IsOpen(t time.Time) bool {
	t = t.In(IST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	m := minuteOfDay(t)
	return m >= marketOpen && m <= marketClose
}

// SessionDate is the IST trading date for t, used for day-rollover checks.
func SessionDate(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// SessionBounds returns the IST midnight bounds [start, end) of the
// trading date containing t.
func SessionBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(IST)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
	return start, start.AddDate(0, 0, 1)
}
