package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/config"
	"github.com/username/attendance-tracker/internal/daemon"
	httphandler "github.com/username/attendance-tracker/internal/handler/http"
	"github.com/username/attendance-tracker/internal/metrics"
	"github.com/username/attendance-tracker/internal/store/postgres"
	"github.com/username/attendance-tracker/internal/timemanager"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

const commandTimeout = time.Minute

// withApp runs fn against a freshly wired app
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show this month's dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.manager.Refresh(ctx)
				if err != nil {
					return err
				}
				printDashboard(cmd.OutOrStdout(), snap, a.manager.Now())
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show every day of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				m, err := monthArg(month, a.manager.Now())
				if err != nil {
					return err
				}
				h, err := a.manager.History(ctx, m)
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), h, a.manager.Policy())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month in YYYY-MM format (default: current month)")
	return cmd
}

func pendingCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List past working days without a complete record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				m, err := monthArg(month, a.manager.Now())
				if err != nil {
					return err
				}
				dates, err := a.manager.PendingDays(ctx, m)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(dates) == 0 {
					fmt.Fprintf(out, "✅ No pending logs for %s\n", m.Format(dateutil.MonthLayout))
					return nil
				}
				fmt.Fprintf(out, "⚠️  %d pending log(s) for %s:\n", len(dates), m.Format(dateutil.MonthLayout))
				for _, d := range dates {
					fmt.Fprintf(out, "  • %s %s\n", d.Format(dateutil.DateLayout), d.Weekday().String()[:3])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month in YYYY-MM format (default: current month)")
	return cmd
}

func clockInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock-in",
		Short: "Start today's session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.manager.ClockIn(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap.SessionLine(a.manager.Now()))
				return nil
			})
		},
	}
}

func clockOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock-out",
		Short: "End today's session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.manager.ClockOut(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap.SessionLine(a.manager.Now()))
				return nil
			})
		},
	}
}

// entryFlags are the day-edit flags shared by entry and today
type entryFlags struct {
	id       string
	date     string
	dayType  string
	checkIn  string
	checkOut string
	notes    string
}

func (f *entryFlags) edit(loc *time.Location) (attendance.Edit, error) {
	edit := attendance.Edit{
		RecordID:     f.id,
		Kind:         attendance.DayKind(f.dayType),
		CheckInTime:  f.checkIn,
		CheckOutTime: f.checkOut,
		Notes:        f.notes,
	}
	if f.date != "" {
		date, err := dateutil.ParseDate(f.date, loc)
		if err != nil {
			return attendance.Edit{}, err
		}
		edit.Date = date
	}
	return edit, nil
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dayType, "type", string(attendance.DayKindWorking), "Day type: working, half-day, leave or holiday")
	cmd.Flags().StringVar(&f.checkIn, "in", "", "Check-in time (HH:MM)")
	cmd.Flags().StringVar(&f.checkOut, "out", "", "Check-out time (HH:MM)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
}

func entryCmd() *cobra.Command {
	var flags entryFlags

	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Log or correct any day",
		Example: `  attendance-tracker entry --date 2024-03-04 --in 09:00 --out 17:30
  attendance-tracker entry --date 2024-03-05 --type leave`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				edit, err := flags.edit(a.manager.Now().Location())
				if err != nil {
					return err
				}
				snap, err := a.manager.SaveEntry(ctx, edit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %s (%d pending log(s) left)\n",
					edit.Date.Format(dateutil.DateLayout), snap.Metrics.PendingLogs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.id, "id", "", "Record id to update (default: the date's record)")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func todayCmd() *cobra.Command {
	var (
		flags    entryFlags
		kindOnly bool
	)

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Edit today's record",
		Long:  "Edit today's record. With --kind-only only the day type changes and the recorded times are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var (
					snap *timemanager.Snapshot
					err  error
				)
				if kindOnly {
					snap, err = a.manager.SetTodayKind(ctx, attendance.DayKind(flags.dayType))
				} else {
					var edit attendance.Edit
					edit, err = flags.edit(a.manager.Now().Location())
					if err != nil {
						return err
					}
					snap, err = a.manager.SaveToday(ctx, edit)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap.SessionLine(a.manager.Now()))
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&kindOnly, "kind-only", false, "Change only the day type")
	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run in background with the session timer and daily reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			a, err := initializeApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			hour, minute := cfg.Daemon.GetReminderTime()
			d := daemon.NewDaemon(
				a.manager,
				cfg.Daemon.GetRefreshInterval(),
				hour,
				minute,
				cfg.Daemon.SystemTray,
				logger,
			)

			logger.Info("Starting daemon mode")
			return d.Start()
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attendance HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := initializeApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := httphandler.NewAttendanceHandler(a.manager, logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           httphandler.NewRouter(handler, cfg.Server.AllowedOrigins, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server failed: %w", err)
			case <-ctx.Done():
			}

			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations to PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Store.Type != config.StorePostgres {
				return fmt.Errorf("migrate needs store.type %q, got %q", config.StorePostgres, cfg.Store.Type)
			}

			version, err := postgres.RunMigrations(cfg.Store.Postgres.URL, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Schema is at version %d\n", version)
			return nil
		},
	}
}

func monthArg(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return dateutil.StartOfMonth(now), nil
	}
	return dateutil.ParseMonth(s, now.Location())
}

func printDashboard(out io.Writer, snap *timemanager.Snapshot, now time.Time) {
	fmt.Fprintln(out, snap.Summary(now))

	if len(snap.Recent) == 0 {
		return
	}
	fmt.Fprintln(out, "\nRecent activity:")
	for _, r := range snap.Recent {
		fmt.Fprintf(out, "  %s  %s - %-5s  %-8s  %s\n", r.Date, r.CheckIn, r.CheckOut, r.Status, r.State)
	}
}

var dayMarks = map[metrics.DayClass]string{
	metrics.DayWorking:    "W",
	metrics.DayHalfDay:    "H",
	metrics.DayLeave:      "L",
	metrics.DayHoliday:    "*",
	metrics.DayWeekend:    ".",
	metrics.DayFuture:     " ",
	metrics.DayUnrecorded: "!",
}

func printHistory(out io.Writer, h *timemanager.History, policy metrics.Config) {
	fmt.Fprintf(out, "📅 %s: %.1fh logged, %d pending\n", h.Month.Format(dateutil.MonthLayout), h.Metrics.TotalHours, h.Metrics.PendingLogs)
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(out, "  Date       Day  | Type       | Hours   | Target | Status")
	fmt.Fprintln(out, "------------------+------------+---------+--------+-----------")

	for _, d := range h.Days {
		status := ""
		if d.Record != nil {
			status = string(d.Record.Status)
		}
		if d.Invalid {
			status += " (invalid times)"
		}
		fmt.Fprintf(out, "%s %s %s  | %-10s | %-7s | %5.1fh | %s\n",
			dayMarks[d.Class],
			d.Date.Format(dateutil.DateLayout),
			d.Date.Weekday().String()[:3],
			d.Class,
			d.HoursText(),
			d.Class.TargetHours(policy),
			status)
	}

	fmt.Fprintln(out, "\nLegend: W working, H half day, L leave, * holiday, . weekend, ! unrecorded")
}
