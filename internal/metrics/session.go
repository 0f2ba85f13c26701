package metrics

import (
	"time"

	"github.com/username/attendance-tracker/pkg/dateutil"
)

// SessionElapsed is now - checkIn, clamped to zero when clocks disagree
func SessionElapsed(checkIn, now time.Time) time.Duration {
	d := now.Sub(checkIn)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// FormatElapsed renders the session timer as "{h}h {m}m"
func FormatElapsed(s Session) string {
	if !s.Active {
		return dateutil.FormatHM(0)
	}
	return dateutil.FormatHM(s.Elapsed)
}

// Tick returns the session advanced to now. Inactive sessions are returned as is.
func (s Session) Tick(now time.Time) Session {
	if !s.Active {
		return s
	}
	s.Elapsed = SessionElapsed(s.CheckIn, now)
	return s
}
