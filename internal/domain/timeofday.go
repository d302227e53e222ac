package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a second-precision clock time within a trading day, stored as
// seconds since midnight. All proximity math in the engine is time-of-day
// only; calendar dates are carried separately.
type TimeOfDay int

var timeOfDayRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// ParseTimeOfDay accepts "HH:MM:SS" or "HH:MM". The whole string must be the
// time; trailing text is rejected rather than ignored.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if h > 23 || min > 59 || sec > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(h*3600 + min*60 + sec), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals in tests and defaults.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return (int(t) % 3600) / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// String formats as "HH:MM:SS", the canonical-log representation.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Short formats as "HH:MM", the stats-sheet slot representation.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// HourBucket truncates to the top of the hour, the bucketed slot key.
func (t TimeOfDay) HourBucket() string {
	return fmt.Sprintf("%02d:00", t.Hour())
}

// Sub returns the signed same-day distance t − other.
func (t TimeOfDay) Sub(other TimeOfDay) time.Duration {
	return time.Duration(int(t)-int(other)) * time.Second
}
