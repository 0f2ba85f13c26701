package timemanager

import (
	"context"
	"fmt"
	"time"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/metrics"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// History is the month grid shown by history views
type History struct {
	Month   time.Time
	Days    []metrics.DayClassification
	Metrics metrics.MonthlyMetrics
	Records []attendance.Record
}

// History classifies every day of month
func (m *Manager) History(ctx context.Context, month time.Time) (*History, error) {
	now := m.now()
	records, err := m.monthRecords(ctx, month, now.Location())
	if err != nil {
		return nil, err
	}

	start := dateutil.StartOfMonth(month.In(now.Location()))
	return &History{
		Month:   start,
		Days:    metrics.ClassifyMonth(records, start, now, m.policy),
		Metrics: metrics.ComputeMonthlyMetrics(records, start, now, m.policy),
		Records: records,
	}, nil
}

// PendingDays lists the past working days of month without a complete record
func (m *Manager) PendingDays(ctx context.Context, month time.Time) ([]time.Time, error) {
	now := m.now()
	records, err := m.monthRecords(ctx, month, now.Location())
	if err != nil {
		return nil, err
	}
	return metrics.PendingDates(records, month, now, m.policy), nil
}

func (m *Manager) monthRecords(ctx context.Context, month time.Time, loc *time.Location) ([]attendance.Record, error) {
	start := dateutil.StartOfMonth(month.In(loc))
	records, err := m.store.ListRange(ctx, m.ownerID, start, dateutil.EndOfMonth(start), attendance.Ascending)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", start.Format(dateutil.MonthLayout), err)
	}
	return records, nil
}
