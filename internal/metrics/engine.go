// Package metrics computes monthly attendance figures from a user's records.
// Everything here is a pure function of its inputs: the current instant is
// always passed in, nothing is cached and nothing performs I/O.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/calendar"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// Default policy values
const (
	DefaultDailyTargetHours     = 8.0
	DefaultHalfDayHours         = 4.0
	DefaultLateThresholdMinutes = 10*60 + 5 // 10:05
)

// Config is the attendance policy the engine evaluates against
type Config struct {
	// Calendar decides working days; the default is Sunday-Thursday
	Calendar             calendar.Calendar
	DailyTargetHours     float64
	HalfDayHours         float64
	LateThresholdMinutes int
}

// DefaultConfig returns the Sunday-Thursday, 8h, 10:05 policy
func DefaultConfig() Config {
	return Config{
		Calendar:             calendar.NewWeekdayCalendar(calendar.DefaultWorkingWeekdays...),
		DailyTargetHours:     DefaultDailyTargetHours,
		HalfDayHours:         DefaultHalfDayHours,
		LateThresholdMinutes: DefaultLateThresholdMinutes,
	}
}

// Session describes today's record from the timer's point of view
type Session struct {
	Active   bool
	RecordID string
	CheckIn  time.Time
	Elapsed  time.Duration
}

// WeekdayStat is one Monday-Friday column of the weekly breakdown
type WeekdayStat struct {
	Label      string
	Date       time.Time
	Hours      float64
	Progress   float64
	InProgress bool
}

// MonthlyMetrics is the derived, never-persisted view of one month
type MonthlyMetrics struct {
	Month                time.Time
	TotalHours           float64
	MonthlyTarget        float64
	TotalWorkingDays     int
	WorkingDaysSoFar     int
	RemainingWorkingDays int
	LateCount            int
	PendingLogs          int
	Weekly               []WeekdayStat
	Session              Session
	TodayRecord          *attendance.Record
	InvalidRecordIDs     []string
}

var weekLabels = [5]string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// ComputeMonthlyMetrics aggregates records for the month containing month,
// as seen at now. Records with unparseable or reversed times are excluded
// from every sum and reported in InvalidRecordIDs.
func ComputeMonthlyMetrics(records []attendance.Record, month, now time.Time, cfg Config) MonthlyMetrics {
	loc := now.Location()
	today := dateutil.StartOfDay(now)
	monthStart := dateutil.StartOfMonth(month.In(loc))

	m := MonthlyMetrics{Month: monthStart}
	byDay := groupByDay(records, loc, &m.InvalidRecordIDs)

	if rec := todayRecord(byDay[dayKey(today)]); rec != nil {
		r := *rec
		m.TodayRecord = &r
		if r.IsOpen() && r.Status.IsWorking() {
			m.Session = Session{
				Active:   true,
				RecordID: r.ID,
				CheckIn:  r.CheckIn.Time,
				Elapsed:  SessionElapsed(r.CheckIn.Time, now),
			}
		}
	}

	var totalMinutes float64
	for _, day := range dateutil.MonthDays(monthStart) {
		for _, r := range byDay[dayKey(day)] {
			if worked, ok := workedTime(r); ok {
				totalMinutes += worked.Minutes()
			}
			if r.Status == attendance.StatusLate {
				m.LateCount++
			}
		}

		if !isWorkday(cfg, day) {
			continue
		}
		m.TotalWorkingDays++
		if day.After(today) {
			m.RemainingWorkingDays++
		} else {
			m.WorkingDaysSoFar++
		}
		if day.Before(today) && isPending(byDay[dayKey(day)]) {
			m.PendingLogs++
		}
	}

	m.TotalHours = totalMinutes / 60
	m.MonthlyTarget = float64(m.TotalWorkingDays) * cfg.DailyTargetHours
	m.Weekly = weeklyBreakdown(byDay, now, cfg)

	return m
}

// Progress is total hours as a percentage of the monthly target
func (m MonthlyMetrics) Progress() float64 {
	return safeRatio(m.TotalHours, m.MonthlyTarget) * 100
}

// LatePercent is late days as a percentage of working days so far
func (m MonthlyMetrics) LatePercent() float64 {
	return safeRatio(float64(m.LateCount), float64(m.WorkingDaysSoFar)) * 100
}

// Shortfall is the hours still missing to reach the monthly target
func (m MonthlyMetrics) Shortfall() float64 {
	return math.Max(0, m.MonthlyTarget-m.TotalHours)
}

// CatchUpPerDay spreads the shortfall across the remaining working days
func (m MonthlyMetrics) CatchUpPerDay() float64 {
	return safeRatio(m.Shortfall(), float64(m.RemainingWorkingDays))
}

// weeklyBreakdown sums Monday-Friday of the week containing now
func weeklyBreakdown(byDay map[string][]attendance.Record, now time.Time, cfg Config) []WeekdayStat {
	monday := dateutil.StartOfWeek(now)
	stats := make([]WeekdayStat, 0, len(weekLabels))

	for i, label := range weekLabels {
		date := monday.AddDate(0, 0, i)
		stat := WeekdayStat{Label: label, Date: date}

		var minutes float64
		for _, r := range byDay[dayKey(date)] {
			if worked, ok := workedTime(r); ok {
				minutes += worked.Minutes()
			} else if r.IsOpen() && dateutil.IsSameDay(date, now) {
				stat.InProgress = true
			}
		}

		stat.Hours = math.Max(0, minutes/60)
		stat.Progress = clampPercent(safeRatio(stat.Hours, cfg.DailyTargetHours) * 100)
		stats = append(stats, stat)
	}

	return stats
}

// isPending is true when a past working day has no record or any record
// without a usable check-out, whatever its status.
func isPending(dayRecords []attendance.Record) bool {
	if len(dayRecords) == 0 {
		return true
	}
	for _, r := range dayRecords {
		if _, ok := r.Worked(); !ok {
			return true
		}
	}
	return false
}

// workedTime ignores any check-out stored on leave and holiday markers
func workedTime(r attendance.Record) (time.Duration, bool) {
	if !r.Status.IsWorking() {
		return 0, false
	}
	return r.Worked()
}

// todayRecord picks the latest check-in when a day holds several records
func todayRecord(dayRecords []attendance.Record) *attendance.Record {
	if len(dayRecords) == 0 {
		return nil
	}
	return &dayRecords[len(dayRecords)-1]
}

// groupByDay buckets records by local check-in date, ascending within a day.
// Records that cannot be placed or whose range is reversed are reported.
func groupByDay(records []attendance.Record, loc *time.Location, invalid *[]string) map[string][]attendance.Record {
	byDay := make(map[string][]attendance.Record)

	for _, r := range records {
		date, ok := r.LocalDate(loc)
		if !ok {
			*invalid = append(*invalid, r.ID)
			continue
		}
		if r.CheckOut != nil && r.Status.IsWorking() {
			if _, ok := r.Worked(); !ok {
				*invalid = append(*invalid, r.ID)
			}
		}
		key := dayKey(date)
		byDay[key] = append(byDay[key], r)
	}

	for _, day := range byDay {
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].CheckIn.Before(day[j].CheckIn.Time)
		})
	}

	return byDay
}

func dayKey(date time.Time) string {
	return date.Format(dateutil.DateLayout)
}

func isWorkday(cfg Config, date time.Time) bool {
	if cfg.Calendar == nil {
		return false
	}
	return cfg.Calendar.IsWorkday(date)
}

// safeRatio returns 0 instead of NaN or Inf for a zero denominator
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return math.Min(p, 100)
}
