package schedule

import (
	"errors"
	"fmt"
	"time"
)

// SlotDuration is the fixed appointment slot granularity in minutes.
const SlotDuration = 30

// ErrInvalidClock is returned when a time string does not parse as 24h HH:MM.
var ErrInvalidClock = errors.New("invalid clock value, expected HH:MM")

// ParseClock converts a 24h "HH:MM" string to minutes since midnight.
func ParseClock(clock string) (int, error) {
	if len(clock) != 5 {
		return 0, ErrInvalidClock
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight back to a zero-padded "HH:MM" string.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateSlots expands one day's working hours into the ordered sequence of
// bookable slot start times. The closing boundary is exclusive: a day ending
// at 17:00 yields 16:30 as its last slot. Unavailable or malformed days
// produce an empty sequence, never an error.
func GenerateSlots(day DayAvailability) []string {
	if !day.Available {
		return []string{}
	}
	start, err := ParseClock(day.Start)
	if err != nil {
		return []string{}
	}
	end, err := ParseClock(day.End)
	if err != nil {
		return []string{}
	}

	slots := []string{}
	for t := start; t < end; t += SlotDuration {
		slots = append(slots, FormatClock(t))
	}
	return slots
}

// WithinHours reports whether a clock value falls inside the day's working
// hours, using the same half-open [start, end) interval as GenerateSlots.
func WithinHours(day DayAvailability, clock string) bool {
	if !day.Available {
		return false
	}
	t, err := ParseClock(clock)
	if err != nil {
		return false
	}
	start, err := ParseClock(day.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(day.End)
	if err != nil {
		return false
	}
	return start <= t && t < end
}
