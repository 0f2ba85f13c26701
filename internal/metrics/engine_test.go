package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/calendar"
)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func closed(id string, in, out time.Time, status attendance.Status) attendance.Record {
	co := attendance.NewTimestamp(out)
	return attendance.Record{ID: id, OwnerID: "u1", CheckIn: attendance.NewTimestamp(in), CheckOut: &co, Status: status}
}

func open(id string, in time.Time, status attendance.Status) attendance.Record {
	return attendance.Record{ID: id, OwnerID: "u1", CheckIn: attendance.NewTimestamp(in), Status: status}
}

func TestComputeMonthlyMetrics_MonthlyTarget(t *testing.T) {
	// February 2023 has exactly four of every weekday
	now := at(2023, time.February, 15, 12, 0)
	m := ComputeMonthlyMetrics(nil, now, now, DefaultConfig())

	assert.Equal(t, 20, m.TotalWorkingDays)
	assert.Equal(t, 160.0, m.MonthlyTarget)
	assert.Equal(t, m.TotalWorkingDays, m.WorkingDaysSoFar+m.RemainingWorkingDays)
}

func TestComputeMonthlyMetrics_TotalHours(t *testing.T) {
	now := at(2024, time.March, 20, 12, 0)
	records := []attendance.Record{
		closed("a", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 30), attendance.StatusPresent),
		closed("b", at(2024, time.March, 5, 10, 10), at(2024, time.March, 5, 18, 10), attendance.StatusLate),
		open("c", at(2024, time.March, 6, 9, 0), attendance.StatusPresent),
		// outside the month
		closed("d", at(2024, time.February, 28, 9, 0), at(2024, time.February, 28, 17, 0), attendance.StatusPresent),
	}

	m := ComputeMonthlyMetrics(records, now, now, DefaultConfig())

	assert.InDelta(t, 16.5, m.TotalHours, 1e-9)
	assert.Equal(t, 1, m.LateCount)
	assert.Empty(t, m.InvalidRecordIDs)
	assert.False(t, m.Session.Active)
	assert.Nil(t, m.TodayRecord)
}

func TestComputeMonthlyMetrics_ExcludesInvalidRecords(t *testing.T) {
	now := at(2024, time.March, 20, 12, 0)
	garbage := attendance.Record{ID: "bad", CheckIn: attendance.ParseTimestamp("not a date"), Status: attendance.StatusPresent}
	records := []attendance.Record{
		closed("ok", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusPresent),
		closed("rev", at(2024, time.March, 5, 17, 0), at(2024, time.March, 5, 9, 0), attendance.StatusPresent),
		garbage,
	}

	m := ComputeMonthlyMetrics(records, now, now, DefaultConfig())

	assert.InDelta(t, 8.0, m.TotalHours, 1e-9)
	assert.ElementsMatch(t, []string{"rev", "bad"}, m.InvalidRecordIDs)
}

func TestComputeMonthlyMetrics_LeaveCheckOutIgnored(t *testing.T) {
	now := at(2024, time.March, 20, 12, 0)
	records := []attendance.Record{
		closed("leave", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusOnLeave),
	}

	m := ComputeMonthlyMetrics(records, now, now, DefaultConfig())

	assert.Zero(t, m.TotalHours)
}

func TestComputeMonthlyMetrics_PendingLogs(t *testing.T) {
	// Wednesday; March 1-2 2024 are Friday and Saturday
	now := at(2024, time.March, 6, 12, 0)

	tests := []struct {
		name    string
		records []attendance.Record
		want    int
	}{
		{
			name: "no records",
			want: 3,
		},
		{
			name: "closed records resolve their days",
			records: []attendance.Record{
				closed("a", at(2024, time.March, 3, 9, 0), at(2024, time.March, 3, 17, 0), attendance.StatusPresent),
				closed("b", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusPresent),
			},
			want: 1,
		},
		{
			name: "open record still pending",
			records: []attendance.Record{
				closed("a", at(2024, time.March, 3, 9, 0), at(2024, time.March, 3, 17, 0), attendance.StatusPresent),
				open("b", at(2024, time.March, 4, 9, 0), attendance.StatusPresent),
			},
			want: 2,
		},
		{
			name: "open leave and holiday stay pending",
			records: []attendance.Record{
				open("a", at(2024, time.March, 3, 9, 0), attendance.StatusOnLeave),
				open("b", at(2024, time.March, 4, 9, 0), attendance.StatusHoliday),
			},
			want: 3,
		},
		{
			name: "closed leave resolves the day",
			records: []attendance.Record{
				closed("a", at(2024, time.March, 3, 9, 0), at(2024, time.March, 3, 17, 0), attendance.StatusOnLeave),
				open("b", at(2024, time.March, 4, 9, 0), attendance.StatusHoliday),
				closed("c", at(2024, time.March, 5, 9, 0), at(2024, time.March, 5, 17, 0), attendance.StatusPresent),
			},
			want: 1,
		},
		{
			name: "today is never pending",
			records: []attendance.Record{
				closed("a", at(2024, time.March, 3, 9, 0), at(2024, time.March, 3, 17, 0), attendance.StatusPresent),
				closed("b", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusPresent),
				closed("c", at(2024, time.March, 5, 9, 0), at(2024, time.March, 5, 17, 0), attendance.StatusPresent),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMonthlyMetrics(tt.records, now, now, DefaultConfig())
			assert.Equal(t, tt.want, m.PendingLogs)
			assert.Len(t, PendingDates(tt.records, now, now, DefaultConfig()), tt.want)
		})
	}
}

func TestComputeMonthlyMetrics_WorkingDayCounts(t *testing.T) {
	now := at(2024, time.March, 6, 12, 0)
	m := ComputeMonthlyMetrics(nil, now, now, DefaultConfig())

	assert.Equal(t, 21, m.TotalWorkingDays)
	assert.Equal(t, 4, m.WorkingDaysSoFar)
	assert.Equal(t, 17, m.RemainingWorkingDays)
}

func TestComputeMonthlyMetrics_WeeklyBreakdown(t *testing.T) {
	now := at(2024, time.March, 6, 14, 0) // Wednesday
	records := []attendance.Record{
		closed("mon", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusPresent),
		closed("tue", at(2024, time.March, 5, 9, 0), at(2024, time.March, 5, 13, 0), attendance.StatusPresent),
		open("wed", at(2024, time.March, 6, 9, 0), attendance.StatusPresent),
	}

	m := ComputeMonthlyMetrics(records, now, now, DefaultConfig())
	require.Len(t, m.Weekly, 5)

	assert.Equal(t, "Mon", m.Weekly[0].Label)
	assert.Equal(t, 8.0, m.Weekly[0].Hours)
	assert.Equal(t, 100.0, m.Weekly[0].Progress)
	assert.Equal(t, 4.0, m.Weekly[1].Hours)
	assert.Equal(t, 50.0, m.Weekly[1].Progress)
	assert.Equal(t, "4.0h", m.Weekly[1].Value())

	assert.True(t, m.Weekly[2].InProgress)
	assert.Equal(t, "in progress", m.Weekly[2].Value())
	for i, stat := range m.Weekly {
		if i != 2 {
			assert.False(t, stat.InProgress, stat.Label)
		}
	}

	assert.True(t, m.Session.Active)
	assert.Equal(t, "wed", m.Session.RecordID)
	assert.Equal(t, 5*time.Hour, m.Session.Elapsed)
	assert.Equal(t, "5h 0m", FormatElapsed(m.Session))
	require.NotNil(t, m.TodayRecord)
	assert.Equal(t, "wed", m.TodayRecord.ID)
}

func TestComputeMonthlyMetrics_WeekStartsMonday(t *testing.T) {
	now := at(2024, time.March, 10, 12, 0) // Sunday
	records := []attendance.Record{
		closed("mon", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 11, 0), attendance.StatusPresent),
	}

	m := ComputeMonthlyMetrics(records, now, now, DefaultConfig())

	assert.Equal(t, at(2024, time.March, 4, 0, 0), m.Weekly[0].Date)
	assert.Equal(t, 2.0, m.Weekly[0].Hours)
}

func TestComputeMonthlyMetrics_LeaveTodayIsNotASession(t *testing.T) {
	now := at(2024, time.March, 6, 14, 0)
	records := []attendance.Record{open("leave", at(2024, time.March, 6, 9, 0), attendance.StatusOnLeave)}

	m := ComputeMonthlyMetrics(records, now, now, DefaultConfig())

	assert.False(t, m.Session.Active)
	require.NotNil(t, m.TodayRecord)
	assert.True(t, m.Weekly[2].InProgress)
	assert.Zero(t, m.Weekly[2].Hours)
}

func TestComputeMonthlyMetrics_Idempotent(t *testing.T) {
	now := at(2024, time.March, 6, 14, 0)
	records := []attendance.Record{
		closed("mon", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusPresent),
		open("wed", at(2024, time.March, 6, 9, 0), attendance.StatusLate),
	}

	first := ComputeMonthlyMetrics(records, now, now, DefaultConfig())
	second := ComputeMonthlyMetrics(records, now, now, DefaultConfig())

	assert.Equal(t, first, second)
}

func TestMonthlyMetrics_ZeroDenominators(t *testing.T) {
	t.Run("no working days so far", func(t *testing.T) {
		now := at(2024, time.March, 1, 12, 0) // Friday, first day
		m := ComputeMonthlyMetrics(nil, now, now, DefaultConfig())

		assert.Equal(t, 0, m.WorkingDaysSoFar)
		assert.Equal(t, 0.0, m.LatePercent())
	})

	t.Run("no remaining working days", func(t *testing.T) {
		now := at(2024, time.March, 31, 12, 0) // Sunday, last day
		m := ComputeMonthlyMetrics(nil, now, now, DefaultConfig())

		assert.Equal(t, 0, m.RemainingWorkingDays)
		assert.Greater(t, m.Shortfall(), 0.0)
		assert.Equal(t, 0.0, m.CatchUpPerDay())
	})

	t.Run("empty calendar", func(t *testing.T) {
		now := at(2024, time.March, 6, 12, 0)
		cfg := DefaultConfig()
		cfg.Calendar = calendar.NewWeekdayCalendar()
		m := ComputeMonthlyMetrics(nil, now, now, cfg)

		assert.Equal(t, 0.0, m.MonthlyTarget)
		assert.Equal(t, 0.0, m.Progress())
		assert.Equal(t, 0.0, m.LatePercent())
		assert.Equal(t, 0.0, m.CatchUpPerDay())
		for _, stat := range m.Weekly {
			assert.Equal(t, 0.0, stat.Progress)
		}
	})

	t.Run("zero daily target", func(t *testing.T) {
		now := at(2024, time.March, 6, 12, 0)
		cfg := DefaultConfig()
		cfg.DailyTargetHours = 0
		records := []attendance.Record{
			closed("mon", at(2024, time.March, 4, 9, 0), at(2024, time.March, 4, 17, 0), attendance.StatusPresent),
		}
		m := ComputeMonthlyMetrics(records, now, now, cfg)

		assert.Equal(t, 0.0, m.Weekly[0].Progress)
	})
}

func TestMonthlyMetrics_DerivedFigures(t *testing.T) {
	m := MonthlyMetrics{
		TotalHours:           40,
		MonthlyTarget:        160,
		WorkingDaysSoFar:     5,
		RemainingWorkingDays: 15,
		LateCount:            1,
	}

	assert.Equal(t, 25.0, m.Progress())
	assert.Equal(t, 20.0, m.LatePercent())
	assert.Equal(t, 120.0, m.Shortfall())
	assert.Equal(t, 8.0, m.CatchUpPerDay())

	m.TotalHours = 200
	assert.Equal(t, 0.0, m.Shortfall())
}
