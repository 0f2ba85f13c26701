package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/timemanager"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// Daemon keeps the attendance view current in the background: it ticks the
// session timer every second, refetches the month periodically and reminds
// once a day about pending logs.
type Daemon struct {
	manager         *timemanager.Manager
	refreshInterval time.Duration
	reminderHour    int // Hour of the daily reminder (0-23)
	reminderMinute  int // Minute of the daily reminder (0-59)
	systemTray      bool
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	trayApp         *TrayApp

	mu               sync.Mutex
	lastReminderDate string // Avoid reminding twice a day
	sessionText      string
}

// NewDaemon creates a new daemon instance
func NewDaemon(manager *timemanager.Manager, refreshInterval time.Duration, reminderHour, reminderMinute int, systemTray bool, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		manager:         manager,
		refreshInterval: refreshInterval,
		reminderHour:    reminderHour,
		reminderMinute:  reminderMinute,
		systemTray:      systemTray,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start starts the daemon and blocks until it stops
func (d *Daemon) Start() error {
	// Initialize system tray if enabled (Windows only)
	if d.systemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			d.runLoop()
			return nil
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		d.trayApp.Run()
		return nil
	}

	d.logger.Info("Running without system tray")
	d.runLoop()
	return nil
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// runLoop is the daemon main loop (called from tray or standalone)
func (d *Daemon) runLoop() {
	d.logger.Info("Daemon started",
		zap.Duration("refresh_interval", d.refreshInterval),
		zap.String("reminder_time", dateutil.FormatClock(d.reminderHour*60+d.reminderMinute)))

	d.refresh()
	d.maybeRemind(d.manager.Now())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	refresh := time.NewTicker(d.refreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			return

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			d.Stop()
			return

		case <-tick.C:
			now := d.manager.Now()
			d.updateSession(now)
			d.maybeRemind(now)

		case <-refresh.C:
			d.refresh()
		}
	}
}

func (d *Daemon) refresh() {
	ctx, cancel := context.WithTimeout(d.ctx, time.Minute)
	defer cancel()

	if _, err := d.manager.Refresh(ctx); err != nil {
		d.logger.Error("Refresh failed", zap.Error(err))
		return
	}
	d.updateSession(d.manager.Now())
}

// updateSession recomputes the session timer text; the tray shows it
func (d *Daemon) updateSession(now time.Time) {
	snap := d.manager.Snapshot()
	if snap == nil {
		return
	}

	text := snap.SessionLine(now)

	d.mu.Lock()
	changed := text != d.sessionText
	d.sessionText = text
	d.mu.Unlock()

	if changed && d.trayApp != nil {
		d.trayApp.SetSessionText(text)
	}
}

// SessionText returns the last rendered session line
func (d *Daemon) SessionText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionText
}

// maybeRemind sends the pending-log reminder once a day, at or after the
// configured time
func (d *Daemon) maybeRemind(now time.Time) {
	if !d.reminderDue(now) {
		return
	}

	snap := d.manager.Snapshot()
	if snap == nil {
		return
	}

	d.mu.Lock()
	d.lastReminderDate = now.Format(dateutil.DateLayout)
	d.mu.Unlock()

	pending := snap.Metrics.PendingLogs
	if pending == 0 {
		d.logger.Debug("No pending logs")
		return
	}

	message := fmt.Sprintf("%d working day(s) this month still need a complete log", pending)
	d.logger.Warn("Pending attendance logs", zap.Int("pending_logs", pending))
	if d.trayApp != nil {
		d.trayApp.ShowNotification("Pending Logs", message)
	}
}

func (d *Daemon) reminderDue(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastReminderDate == now.Format(dateutil.DateLayout) {
		return false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), d.reminderHour, d.reminderMinute, 0, 0, now.Location())
	return !now.Before(scheduled)
}

// nextReminder returns the next reminder time after now
func (d *Daemon) nextReminder(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), d.reminderHour, d.reminderMinute, 0, 0, now.Location())
	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// ClockIn is triggered from the tray menu
func (d *Daemon) ClockIn() {
	d.runAction("Clock In", d.manager.ClockIn)
}

// ClockOut is triggered from the tray menu
func (d *Daemon) ClockOut() {
	d.runAction("Clock Out", d.manager.ClockOut)
}

func (d *Daemon) runAction(name string, action func(context.Context) (*timemanager.Snapshot, error)) {
	ctx, cancel := context.WithTimeout(d.ctx, time.Minute)
	defer cancel()

	snap, err := action(ctx)
	if err != nil {
		d.logger.Error("Action failed", zap.String("action", name), zap.Error(err))
		if d.trayApp != nil {
			d.trayApp.ShowNotification(name+" Failed", fmt.Sprintf("Error: %v", err))
		}
		return
	}

	now := d.manager.Now()
	d.updateSession(now)
	d.logger.Info("Action completed", zap.String("action", name))
	if d.trayApp != nil {
		d.trayApp.ShowNotification(name, snap.SessionLine(now))
	}
}

// GetStatus returns the current dashboard summary
func (d *Daemon) GetStatus() string {
	snap := d.manager.Snapshot()
	if snap == nil {
		return "No status available"
	}
	now := d.manager.Now()
	return snap.Summary(now) + "\nNext reminder: " + d.nextReminder(now).Format("2006-01-02 15:04")
}
