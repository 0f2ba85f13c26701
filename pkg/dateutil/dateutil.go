package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the calendar date format used across the app (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// MonthLayout is the month selector format (YYYY-MM)
const MonthLayout = "2006-01"

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// EndOfDay returns the end of the day (23:59:59.999) for the given date
func EndOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 999999999, date.Location())
}

// StartOfWeek returns the Monday of the week for the given date.
// Sunday belongs to the week that started on the previous Monday.
func StartOfWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	daysFromMonday := weekday - 1
	return StartOfDay(date.AddDate(0, 0, -daysFromMonday))
}

// StartOfMonth returns the first day of the month (00:00:00)
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last instant of the month
func EndOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month()+1, 0, 23, 59, 59, 999999999, date.Location())
}

// DaysInMonth returns the number of calendar days in the month of date
func DaysInMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// MonthDays returns every calendar date of the month, each at start of day
func MonthDays(date time.Time) []time.Time {
	first := StartOfMonth(date)
	n := DaysInMonth(date)
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// IsSameMonth returns true if two dates fall in the same calendar month
func IsSameMonth(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() && date1.Month() == date2.Month()
}

// MinuteOfDay returns minutes elapsed since local midnight
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses an "HH:MM" wall-clock value into minutes after midnight.
// The whole string must match; trailing seconds or suffixes are rejected.
func ParseClock(s string) (int, error) {
	parts := clockPattern.FindStringSubmatch(s)
	if parts == nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, _ := strconv.Atoi(parts[1])
	m, _ := strconv.Atoi(parts[2])
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock formats minutes after midnight as "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AtClock returns the given date at minutes after midnight in the date's location
func AtClock(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location())
}

// FormatHM renders a duration as "{h}h {m}m", truncating seconds.
// Negative durations render as "0h 0m".
func FormatHM(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
}

// ParseMonth parses "YYYY-MM" into the first day of that month in loc
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return t, nil
}

// ParseDate parses date string in various formats, in the given location
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	formats := []string{
		DateLayout,
		"02.01.2006",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, dateStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
