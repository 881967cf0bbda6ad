package conflict

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTime     = errors.New("invalid time of day")
	ErrInvalidInterval = errors.New("start time must be before end time")
)

// ParseClock converts "HH:MM" into minutes since midnight. The "HH:MM:SS"
// form Postgres returns is accepted only with zero seconds, since bookings
// are planned to the minute.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		if t.Second() != 0 {
			return 0, fmt.Errorf("%w: %q has seconds", ErrInvalidTime, s)
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NormalizeClock rewrites an accepted time of day into the canonical "HH:MM".
func NormalizeClock(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(m), nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// interval is a half-open [start, end) range in minutes since midnight.
type interval struct {
	start int
	end   int
}

func (iv interval) duration() int {
	return iv.end - iv.start
}

// intersect returns the overlapping part of a and b. ok is false when the
// intervals only touch or are disjoint.
func intersect(a, b interval) (interval, bool) {
	start := max(a.start, b.start)
	end := min(a.end, b.end)
	if end <= start {
		return interval{}, false
	}
	return interval{start: start, end: end}, true
}

// ValidateWindow checks that the window's times parse and start before they end.
func ValidateWindow(w Window) error {
	if _, err := parseInterval(w.Start, w.End); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

func parseInterval(startTime, endTime string) (interval, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return interval{}, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return interval{}, err
	}
	if start >= end {
		return interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, startTime, endTime)
	}
	return interval{start: start, end: end}, nil
}
