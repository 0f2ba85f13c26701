package calendar

import "time"

// DefaultWorkingWeekdays is a five-day week running Sunday through Thursday
var DefaultWorkingWeekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
}

// WeekdayCalendar treats a fixed set of weekdays as working days
type WeekdayCalendar struct {
	working [7]bool
}

// NewWeekdayCalendar creates a calendar from the given working weekdays
func NewWeekdayCalendar(days ...time.Weekday) *WeekdayCalendar {
	wc := &WeekdayCalendar{}
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			wc.working[d] = true
		}
	}
	return wc
}

// IsWorkday checks if the date's weekday is in the working set
func (wc *WeekdayCalendar) IsWorkday(date time.Time) bool {
	return wc.working[date.Weekday()]
}

// GetDayInfo returns detailed info for a specific day
func (wc *WeekdayCalendar) GetDayInfo(date time.Time) DayInfo {
	if wc.IsWorkday(date) {
		return DayInfo{Date: date, Type: DayTypeWorkday, IsWorkday: true}
	}
	return DayInfo{Date: date, Type: DayTypeWeekend}
}

// Weekdays returns the working weekdays in Sunday-first order
func (wc *WeekdayCalendar) Weekdays() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if wc.working[d] {
			days = append(days, d)
		}
	}
	return days
}
