package timemanager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/metrics"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// Snapshot is one consistent view of the current month
type Snapshot struct {
	Month     time.Time
	Metrics   metrics.MonthlyMetrics
	Records   []attendance.Record
	Recent    []metrics.Activity
	FetchedAt time.Time
}

// Manager performs attendance actions for one owner.
// Each action runs write, refetch and recompute as one serialized step.
type Manager struct {
	store   attendance.RecordStore
	policy  metrics.Config
	ownerID string
	now     func() time.Time
	logger  *zap.Logger

	// defaultCheckIn is minutes after midnight offered for today's edit
	defaultCheckIn int

	actionMu sync.Mutex

	generation atomic.Uint64
	snapMu     sync.RWMutex
	published  uint64
	snapshot   *Snapshot
	onSnapshot []func(*Snapshot)
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDefaultCheckIn sets the check-in offered when today has no record
func WithDefaultCheckIn(minutes int) Option {
	return func(m *Manager) { m.defaultCheckIn = minutes }
}

// NewManager creates a new attendance manager
func NewManager(store attendance.RecordStore, policy metrics.Config, ownerID string, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		policy:         policy,
		ownerID:        ownerID,
		now:            time.Now,
		logger:         logger,
		defaultCheckIn: attendance.NonWorkingCheckInMinutes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the attendance policy in use
func (m *Manager) Policy() metrics.Config {
	return m.policy
}

// Now returns the manager's current instant
func (m *Manager) Now() time.Time {
	return m.now()
}

// DefaultCheckIn returns the "HH:MM" offered for a new entry today
func (m *Manager) DefaultCheckIn() string {
	return dateutil.FormatClock(m.defaultCheckIn)
}

// OnSnapshot registers fn to run after every published snapshot
func (m *Manager) OnSnapshot(fn func(*Snapshot)) {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()
	m.onSnapshot = append(m.onSnapshot, fn)
}

// Snapshot returns the latest published snapshot, or nil before the first refresh
func (m *Manager) Snapshot() *Snapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snapshot
}

// Refresh refetches the current month and recomputes its metrics.
// When refreshes overlap, only the most recently started one is published.
func (m *Manager) Refresh(ctx context.Context) (*Snapshot, error) {
	gen := m.generation.Add(1)

	snap, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	m.publish(gen, snap)
	return snap, nil
}

func (m *Manager) publish(gen uint64, snap *Snapshot) {
	m.snapMu.Lock()
	if gen < m.published {
		m.snapMu.Unlock()
		m.logger.Debug("Discarding superseded refresh",
			zap.Uint64("generation", gen),
			zap.Uint64("published", m.published))
		return
	}
	m.published = gen
	m.snapshot = snap
	hooks := append([]func(*Snapshot){}, m.onSnapshot...)
	m.snapMu.Unlock()

	for _, fn := range hooks {
		fn(snap)
	}
}

// load fetches the month containing now plus the month before it, so the
// weekly breakdown and recent activity stay complete early in a month
func (m *Manager) load(ctx context.Context) (*Snapshot, error) {
	now := m.now()
	month := dateutil.StartOfMonth(now)

	records, err := m.store.ListRange(ctx, m.ownerID, month.AddDate(0, -1, 0), dateutil.EndOfMonth(now), attendance.Ascending)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance: %w", err)
	}

	snap := &Snapshot{
		Month:     month,
		Metrics:   metrics.ComputeMonthlyMetrics(records, month, now, m.policy),
		Records:   records,
		Recent:    metrics.RecentActivity(records, now.Location()),
		FetchedAt: now,
	}

	if len(snap.Metrics.InvalidRecordIDs) > 0 {
		m.logger.Warn("Records with unusable times excluded from totals",
			zap.Strings("ids", snap.Metrics.InvalidRecordIDs))
	}

	m.logger.Debug("Attendance refreshed",
		zap.Time("month", month),
		zap.Float64("total_hours", snap.Metrics.TotalHours),
		zap.Int("pending_logs", snap.Metrics.PendingLogs))

	return snap, nil
}

// ClockIn starts today's session. A record already present for today
// (for example a leave marker) is turned into the new session.
func (m *Manager) ClockIn(ctx context.Context) (*Snapshot, error) {
	return m.act(ctx, func(snap *Snapshot, now time.Time) error {
		if snap.Metrics.Session.Active {
			return attendance.ErrSessionAlreadyActive
		}

		rec := attendance.Record{
			OwnerID: m.ownerID,
			CheckIn: attendance.NewTimestamp(now),
			Status:  metrics.ResolveStatusOnCheckIn(now, m.policy),
		}
		if today := snap.Metrics.TodayRecord; today != nil {
			rec.ID = today.ID
			rec.Notes = today.Notes
		}

		if err := m.write(ctx, rec); err != nil {
			return err
		}

		m.logger.Info("Session started",
			zap.Time("check_in", now),
			zap.String("status", string(rec.Status)))
		return nil
	})
}

// ClockOut ends the active session
func (m *Manager) ClockOut(ctx context.Context) (*Snapshot, error) {
	return m.act(ctx, func(snap *Snapshot, now time.Time) error {
		if !snap.Metrics.Session.Active || snap.Metrics.TodayRecord == nil {
			return attendance.ErrNoActiveSession
		}

		rec := *snap.Metrics.TodayRecord
		out := attendance.NewTimestamp(now)
		rec.CheckOut = &out

		if err := m.write(ctx, rec); err != nil {
			return err
		}

		worked, _ := rec.Worked()
		m.logger.Info("Session ended",
			zap.Time("check_out", now),
			zap.String("worked", dateutil.FormatHM(worked)))
		return nil
	})
}

// SaveEntry validates and writes a manual entry for any date. Without a
// record id the date's existing record is updated, so a day keeps one record.
func (m *Manager) SaveEntry(ctx context.Context, edit attendance.Edit) (*Snapshot, error) {
	return m.act(ctx, func(_ *Snapshot, now time.Time) error {
		if !edit.Date.IsZero() {
			y, mo, d := edit.Date.Date()
			edit.Date = time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
		}
		v, err := edit.Validate(now)
		if err != nil {
			return err
		}

		rec := attendance.Record{
			ID:      v.RecordID,
			OwnerID: m.ownerID,
			CheckIn: attendance.NewTimestamp(v.CheckIn),
			Status:  metrics.ResolveEntryStatus(v.Kind, v.CheckIn, m.policy),
		}
		if v.CheckOut != nil {
			out := attendance.NewTimestamp(*v.CheckOut)
			rec.CheckOut = &out
		}
		if v.Notes != "" {
			notes := v.Notes
			rec.Notes = &notes
		}

		if rec.ID == "" {
			existing, err := m.recordOn(ctx, v.Date)
			if err != nil {
				return err
			}
			if existing != nil {
				rec.ID = existing.ID
			}
		}

		if err := m.write(ctx, rec); err != nil {
			return err
		}

		m.logger.Info("Entry saved",
			zap.String("date", v.Date.Format(dateutil.DateLayout)),
			zap.String("day_type", string(v.Kind)),
			zap.String("status", string(rec.Status)))
		return nil
	})
}

// SaveToday is SaveEntry pinned to today's date and record
func (m *Manager) SaveToday(ctx context.Context, edit attendance.Edit) (*Snapshot, error) {
	edit.Date = dateutil.StartOfDay(m.now())
	edit.RecordID = ""
	if edit.CheckInTime == "" && (edit.Kind == "" || edit.Kind == attendance.DayKindWorking || edit.Kind == attendance.DayKindHalfDay) {
		edit.CheckInTime = m.DefaultCheckIn()
	}
	return m.SaveEntry(ctx, edit)
}

// SetTodayKind switches today's day type and keeps its times. Without a
// record for today, one is created checked in at now.
func (m *Manager) SetTodayKind(ctx context.Context, kind attendance.DayKind) (*Snapshot, error) {
	if _, err := attendance.ParseDayKind(string(kind)); err != nil {
		return nil, err
	}

	return m.act(ctx, func(snap *Snapshot, now time.Time) error {
		rec := attendance.Record{OwnerID: m.ownerID, CheckIn: attendance.NewTimestamp(now)}
		if today := snap.Metrics.TodayRecord; today != nil {
			rec = *today
		}
		rec.Status = metrics.ResolveEntryStatus(kind, rec.CheckIn.Time, m.policy)

		if err := m.write(ctx, rec); err != nil {
			return err
		}

		m.logger.Info("Day type changed",
			zap.String("day_type", string(kind)),
			zap.String("status", string(rec.Status)))
		return nil
	})
}

// act runs one user action against a fresh view and publishes the result
func (m *Manager) act(ctx context.Context, fn func(snap *Snapshot, now time.Time) error) (*Snapshot, error) {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	snap, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	if err := fn(snap, m.now()); err != nil {
		return nil, err
	}

	return m.Refresh(ctx)
}

// write validates rec and sends it to the store; rejected records are never sent
func (m *Manager) write(ctx context.Context, rec attendance.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.ID == "" {
		if _, err := m.store.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to save attendance: %w", err)
		}
		return nil
	}

	if _, err := m.store.Update(ctx, rec); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

// recordOn returns the latest record checked in on date, if any
func (m *Manager) recordOn(ctx context.Context, date time.Time) (*attendance.Record, error) {
	records, err := m.store.ListRange(ctx, m.ownerID, dateutil.StartOfDay(date), dateutil.EndOfDay(date), attendance.Descending)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", date.Format(dateutil.DateLayout), err)
	}
	for i := range records {
		if records[i].CheckIn.Valid() {
			return &records[i], nil
		}
	}
	return nil, nil
}
