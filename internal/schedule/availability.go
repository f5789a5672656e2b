package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a lowercase weekday name used as the key of a weekly availability template.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists all weekday keys in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DayAvailability describes a doctor's working hours for one weekday.
// Start and End are 24h HH:MM clocks; End is an exclusive closing boundary.
type DayAvailability struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// WeeklyAvailability maps weekday names to working hours. A missing day
// entry means the doctor is unavailable on that day.
type WeeklyAvailability map[Weekday]DayAvailability

// WeekdayOf returns the template key for a calendar date.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

// Day returns the entry for a weekday, falling back to an unavailable day
// when the entry is missing or malformed.
func (w WeeklyAvailability) Day(d Weekday) DayAvailability {
	day, ok := w[d]
	if !ok {
		return DayAvailability{Available: false}
	}
	if day.Available {
		start, errStart := ParseClock(day.Start)
		end, errEnd := ParseClock(day.End)
		if errStart != nil || errEnd != nil || start >= end {
			return DayAvailability{Available: false}
		}
	}
	return day
}

// Validate checks every present day entry: when a day is marked available,
// its start and end must be valid HH:MM clocks with start < end.
func (w WeeklyAvailability) Validate() error {
	for day, entry := range w {
		if !validWeekday(day) {
			return fmt.Errorf("unknown weekday %q", day)
		}
		if !entry.Available {
			continue
		}
		start, err := ParseClock(entry.Start)
		if err != nil {
			return fmt.Errorf("%s: invalid start time %q", day, entry.Start)
		}
		end, err := ParseClock(entry.End)
		if err != nil {
			return fmt.Errorf("%s: invalid end time %q", day, entry.End)
		}
		if start >= end {
			return fmt.Errorf("%s: start time %s must be before end time %s", day, entry.Start, entry.End)
		}
	}
	return nil
}

// DefaultWeeklyAvailability is the template written when a doctor profile is
// created: weekdays 09:00-17:00, weekend off.
func DefaultWeeklyAvailability() WeeklyAvailability {
	w := WeeklyAvailability{}
	for _, day := range Weekdays {
		switch day {
		case Saturday, Sunday:
			w[day] = DayAvailability{Available: false}
		default:
			w[day] = DayAvailability{Start: "09:00", End: "17:00", Available: true}
		}
	}
	return w
}

func validWeekday(d Weekday) bool {
	for _, day := range Weekdays {
		if day == d {
			return true
		}
	}
	return false
}
