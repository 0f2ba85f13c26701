package timemanager

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/attendance-tracker/internal/metrics"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// SessionLine describes today's session as of now
func (s *Snapshot) SessionLine(now time.Time) string {
	session := s.Metrics.Session.Tick(now)
	switch {
	case session.Active:
		return fmt.Sprintf("Session: active %s (since %s)",
			metrics.FormatElapsed(session), session.CheckIn.In(now.Location()).Format("15:04"))
	case s.Metrics.TodayRecord == nil:
		return "Session: not started"
	case !s.Metrics.TodayRecord.Status.IsWorking():
		return "Session: " + string(s.Metrics.TodayRecord.Status)
	default:
		worked, ok := s.Metrics.TodayRecord.Worked()
		if !ok {
			return "Session: invalid record"
		}
		return "Session: completed " + dateutil.FormatHM(worked)
	}
}

// Summary renders the dashboard figures as plain text lines
func (s *Snapshot) Summary(now time.Time) string {
	m := s.Metrics
	lines := []string{
		s.SessionLine(now),
		fmt.Sprintf("Month %s: %.1fh / %.1fh (%.1f%%)", m.Month.Format(dateutil.MonthLayout), m.TotalHours, m.MonthlyTarget, m.Progress()),
		fmt.Sprintf("Working days: %d so far, %d remaining", m.WorkingDaysSoFar, m.RemainingWorkingDays),
		fmt.Sprintf("Late: %d (%.1f%%)", m.LateCount, m.LatePercent()),
		fmt.Sprintf("Pending logs: %d", m.PendingLogs),
	}
	if m.Shortfall() > 0 {
		lines = append(lines, fmt.Sprintf("Catch-up: %.1fh/day", m.CatchUpPerDay()))
	}

	week := make([]string, 0, len(m.Weekly))
	for _, w := range m.Weekly {
		week = append(week, w.Label+" "+w.Value())
	}
	lines = append(lines, "Week: "+strings.Join(week, ", "))

	return strings.Join(lines, "\n")
}
