package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// DayClass is the derived classification of one calendar date
type DayClass string

const (
	DayWorking    DayClass = "working"
	DayHalfDay    DayClass = "half-day"
	DayLeave      DayClass = "leave"
	DayHoliday    DayClass = "holiday"
	DayWeekend    DayClass = "weekend"
	DayFuture     DayClass = "future"
	DayUnrecorded DayClass = "unrecorded"
)

// DayClassification is what a history view shows for one date
type DayClassification struct {
	Date  time.Time
	Class DayClass
	// Hours is nil unless the day's record has a usable check-out
	Hours *float64
	// Record is the day's record, if any
	Record *attendance.Record
	// Invalid marks a record whose times could not be used
	Invalid bool
}

// HoursText renders Hours as "{h}h {m}m", or "-" when absent
func (d DayClassification) HoursText() string {
	if d.Hours == nil {
		return "-"
	}
	return dateutil.FormatHM(time.Duration(*d.Hours * float64(time.Hour)))
}

// ClassifyDay classifies date. A record always wins over the weekend and
// future rules, so attendance logged on a non-working day keeps its status.
func ClassifyDay(date time.Time, records []attendance.Record, now time.Time, cfg Config) DayClassification {
	loc := now.Location()
	day := dateutil.StartOfDay(date.In(loc))
	out := DayClassification{Date: day}

	var match *attendance.Record
	for i := range records {
		d, ok := records[i].LocalDate(loc)
		if !ok || !d.Equal(day) {
			continue
		}
		if match == nil || records[i].CheckIn.After(match.CheckIn.Time) {
			match = &records[i]
		}
	}

	if match != nil {
		r := *match
		out.Record = &r
		out.Class = classOf(r.Status)
		if worked, ok := r.Worked(); ok {
			h := worked.Hours()
			out.Hours = &h
		} else if r.CheckOut != nil && r.Status.IsWorking() {
			out.Invalid = true
		}
		return out
	}

	switch {
	case day.After(dateutil.StartOfDay(now)):
		out.Class = DayFuture
	case !isWorkday(cfg, day):
		out.Class = DayWeekend
	default:
		out.Class = DayUnrecorded
	}
	return out
}

// ClassifyMonth classifies every date of the month containing month
func ClassifyMonth(records []attendance.Record, month, now time.Time, cfg Config) []DayClassification {
	days := dateutil.MonthDays(dateutil.StartOfMonth(month.In(now.Location())))
	out := make([]DayClassification, 0, len(days))
	for _, day := range days {
		out = append(out, ClassifyDay(day, records, now, cfg))
	}
	return out
}

// PendingDates lists the working days before today that still need a
// complete record. Its length equals MonthlyMetrics.PendingLogs.
func PendingDates(records []attendance.Record, month, now time.Time, cfg Config) []time.Time {
	loc := now.Location()
	today := dateutil.StartOfDay(now)
	var ignored []string
	byDay := groupByDay(records, loc, &ignored)

	var dates []time.Time
	for _, day := range dateutil.MonthDays(dateutil.StartOfMonth(month.In(loc))) {
		if !day.Before(today) || !isWorkday(cfg, day) {
			continue
		}
		if isPending(byDay[dayKey(day)]) {
			dates = append(dates, day)
		}
	}
	return dates
}

func classOf(s attendance.Status) DayClass {
	switch s {
	case attendance.StatusOnLeave:
		return DayLeave
	case attendance.StatusHoliday:
		return DayHoliday
	case attendance.StatusHalfDay:
		return DayHalfDay
	default:
		return DayWorking
	}
}

// TargetHours is the expected hours for a classified day
func (c DayClass) TargetHours(cfg Config) float64 {
	switch c {
	case DayWorking, DayUnrecorded:
		return cfg.DailyTargetHours
	case DayHalfDay:
		return cfg.HalfDayHours
	default:
		return 0
	}
}

// ResolveStatusOnCheckIn is Late when check-in falls after the threshold
func ResolveStatusOnCheckIn(checkIn time.Time, cfg Config) attendance.Status {
	if dateutil.MinuteOfDay(checkIn) > cfg.LateThresholdMinutes {
		return attendance.StatusLate
	}
	return attendance.StatusPresent
}

// ResolveEntryStatus maps a manual entry to a status. Half-day, leave and
// holiday are forced; a working day is resolved from its check-in time.
func ResolveEntryStatus(kind attendance.DayKind, checkIn time.Time, cfg Config) attendance.Status {
	switch kind {
	case attendance.DayKindHalfDay:
		return attendance.StatusHalfDay
	case attendance.DayKindLeave:
		return attendance.StatusOnLeave
	case attendance.DayKindHoliday:
		return attendance.StatusHoliday
	default:
		return ResolveStatusOnCheckIn(checkIn, cfg)
	}
}

// Value is the weekly cell text: hours with one decimal, or "in progress"
func (w WeekdayStat) Value() string {
	if w.InProgress {
		return "in progress"
	}
	return fmt.Sprintf("%.1fh", w.Hours)
}

// RecentActivityLimit is how many records the activity feed shows
const RecentActivityLimit = 5

// Activity is one line of the recent-activity feed
type Activity struct {
	RecordID string
	Date     string
	CheckIn  string
	CheckOut string
	Status   attendance.Status
	State    string
}

// RecentActivity returns the newest records first, formatted for display.
// Unparseable check-ins sort last and render as "Invalid Date".
func RecentActivity(records []attendance.Record, loc *time.Location) []Activity {
	sorted := make([]attendance.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].CheckIn, sorted[j].CheckIn
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return a.After(b.Time)
	})

	if len(sorted) > RecentActivityLimit {
		sorted = sorted[:RecentActivityLimit]
	}

	out := make([]Activity, 0, len(sorted))
	for _, r := range sorted {
		a := Activity{RecordID: r.ID, Status: r.Status, State: "Completed", CheckOut: "-"}
		if r.IsOpen() {
			a.State = "Active"
		}
		if r.CheckIn.Valid() {
			in := r.CheckIn.In(loc)
			a.Date = in.Format(dateutil.DateLayout)
			a.CheckIn = in.Format("15:04")
		} else {
			a.Date = "Invalid Date"
			a.CheckIn = "Invalid Date"
		}
		if r.CheckOut != nil {
			if r.CheckOut.Valid() {
				a.CheckOut = r.CheckOut.In(loc).Format("15:04")
			} else {
				a.CheckOut = "Invalid Date"
			}
		}
		out = append(out, a)
	}
	return out
}
