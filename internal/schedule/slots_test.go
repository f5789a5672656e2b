package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)

	minutes, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, minutes)

	minutes, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, minutes)

	for _, bad := range []string{"", "9:30", "09:60", "24:00", "0930", "09-30", "abcde"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, "input %q", bad)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:00", FormatClock(540))
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "16:30", FormatClock(990))
}

func TestGenerateSlots_UnavailableDayIsEmpty(t *testing.T) {
	slots := GenerateSlots(DayAvailability{Start: "09:00", End: "17:00", Available: false})
	assert.Empty(t, slots)
}

func TestGenerateSlots_MalformedDayIsEmpty(t *testing.T) {
	assert.Empty(t, GenerateSlots(DayAvailability{Start: "nine", End: "17:00", Available: true}))
	assert.Empty(t, GenerateSlots(DayAvailability{Start: "09:00", End: "late", Available: true}))
}

func TestGenerateSlots_ExclusiveClosingBoundary(t *testing.T) {
	slots := GenerateSlots(DayAvailability{Start: "09:00", End: "17:00", Available: true})
	require.NotEmpty(t, slots)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "16:30", slots[len(slots)-1])
	assert.NotContains(t, slots, "17:00")
	assert.Len(t, slots, 16)
}

func TestGenerateSlots_OneHourWindow(t *testing.T) {
	slots := GenerateSlots(DayAvailability{Start: "09:00", End: "10:00", Available: true})
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
}

func TestGenerateSlots_OrderedAndEvenlySpaced(t *testing.T) {
	day := DayAvailability{Start: "08:00", End: "12:30", Available: true}
	slots := GenerateSlots(day)
	require.NotEmpty(t, slots)

	start, _ := ParseClock(day.Start)
	end, _ := ParseClock(day.End)
	prev := -1
	for _, slot := range slots {
		minutes, err := ParseClock(slot)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, minutes, start)
		assert.Less(t, minutes, end)
		if prev >= 0 {
			assert.Equal(t, SlotDuration, minutes-prev)
		}
		prev = minutes
	}
}

func TestWithinHours(t *testing.T) {
	day := DayAvailability{Start: "09:00", End: "17:00", Available: true}

	assert.True(t, WithinHours(day, "09:00"))
	assert.True(t, WithinHours(day, "16:30"))
	assert.True(t, WithinHours(day, "12:15"))
	assert.False(t, WithinHours(day, "08:30"))
	assert.False(t, WithinHours(day, "17:00"))
	assert.False(t, WithinHours(day, "not-a-clock"))

	off := DayAvailability{Start: "09:00", End: "17:00", Available: false}
	assert.False(t, WithinHours(off, "10:00"))
}

func TestWeekdayOf(t *testing.T) {
	// 2025-06-02 is a Monday.
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Monday, WeekdayOf(monday))
	assert.Equal(t, Sunday, WeekdayOf(monday.AddDate(0, 0, 6)))
}

func TestWeeklyAvailability_Validate(t *testing.T) {
	require.NoError(t, DefaultWeeklyAvailability().Validate())

	bad := WeeklyAvailability{
		Monday: {Start: "17:00", End: "09:00", Available: true},
	}
	assert.Error(t, bad.Validate())

	badClock := WeeklyAvailability{
		Tuesday: {Start: "soon", End: "17:00", Available: true},
	}
	assert.Error(t, badClock.Validate())

	unknownDay := WeeklyAvailability{
		Weekday("funday"): {Available: false},
	}
	assert.Error(t, unknownDay.Validate())

	// Unavailable entries are not required to carry valid hours.
	off := WeeklyAvailability{
		Wednesday: {Available: false},
	}
	assert.NoError(t, off.Validate())
}

func TestWeeklyAvailability_Day(t *testing.T) {
	w := WeeklyAvailability{
		Monday:  {Start: "09:00", End: "17:00", Available: true},
		Tuesday: {Start: "17:00", End: "09:00", Available: true},
	}

	assert.True(t, w.Day(Monday).Available)
	// Malformed entries read as unavailable.
	assert.False(t, w.Day(Tuesday).Available)
	// Missing entries read as unavailable.
	assert.False(t, w.Day(Sunday).Available)
}

func TestDefaultWeeklyAvailability(t *testing.T) {
	w := DefaultWeeklyAvailability()
	for _, day := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday} {
		assert.True(t, w.Day(day).Available, "day %s", day)
		assert.Equal(t, "09:00", w[day].Start)
		assert.Equal(t, "17:00", w[day].End)
	}
	assert.False(t, w.Day(Saturday).Available)
	assert.False(t, w.Day(Sunday).Available)
}
