package http

import (
	"time"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/metrics"
	"github.com/username/attendance-tracker/internal/timemanager"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// EntryRequest is the body of PUT /entries and PUT /today
type EntryRequest struct {
	ID           string `json:"id,omitempty"`
	Date         string `json:"date,omitempty"`
	DayType      string `json:"day_type"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// toEdit resolves the request date in loc
func (r EntryRequest) toEdit(loc *time.Location) (attendance.Edit, error) {
	edit := attendance.Edit{
		RecordID:     r.ID,
		Kind:         attendance.DayKind(r.DayType),
		CheckInTime:  r.CheckInTime,
		CheckOutTime: r.CheckOutTime,
		Notes:        r.Notes,
	}
	if r.Date != "" {
		date, err := dateutil.ParseDate(r.Date, loc)
		if err != nil {
			return attendance.Edit{}, attendance.ValidationErrors{{Field: "date", Err: err}}
		}
		edit.Date = date
	}
	return edit, nil
}

// DayKindRequest is the body of PUT /today/kind
type DayKindRequest struct {
	DayType string `json:"day_type"`
}

type SessionResponse struct {
	Active         bool       `json:"active"`
	RecordID       string     `json:"record_id,omitempty"`
	CheckIn        *time.Time `json:"check_in,omitempty"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	ElapsedText    string     `json:"elapsed_text"`
}

type WeekdayResponse struct {
	Label      string  `json:"label"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Progress   float64 `json:"progress"`
	InProgress bool    `json:"in_progress"`
	Value      string  `json:"value"`
}

type ActivityResponse struct {
	RecordID string            `json:"record_id"`
	Date     string            `json:"date"`
	CheckIn  string            `json:"check_in"`
	CheckOut string            `json:"check_out"`
	Status   attendance.Status `json:"status"`
	State    string            `json:"state"`
}

// DashboardResponse is the current month as the dashboard shows it
type DashboardResponse struct {
	Month                string             `json:"month"`
	TotalHours           float64            `json:"total_hours"`
	MonthlyTarget        float64            `json:"monthly_target"`
	Progress             float64            `json:"progress"`
	TotalWorkingDays     int                `json:"total_working_days"`
	WorkingDaysSoFar     int                `json:"working_days_so_far"`
	RemainingWorkingDays int                `json:"remaining_working_days"`
	LateCount            int                `json:"late_count"`
	LatePercent          float64            `json:"late_percent"`
	PendingLogs          int                `json:"pending_logs"`
	Shortfall            float64            `json:"shortfall"`
	CatchUpPerDay        float64            `json:"catch_up_per_day"`
	Session              SessionResponse    `json:"session"`
	Today                *attendance.Record `json:"today"`
	Weekly               []WeekdayResponse  `json:"weekly"`
	Recent               []ActivityResponse `json:"recent"`
	InvalidRecordIDs     []string           `json:"invalid_record_ids,omitempty"`
}

func newDashboardResponse(snap *timemanager.Snapshot, now time.Time) DashboardResponse {
	m := snap.Metrics
	session := m.Session.Tick(now)

	resp := DashboardResponse{
		Month:                snap.Month.Format(dateutil.MonthLayout),
		TotalHours:           m.TotalHours,
		MonthlyTarget:        m.MonthlyTarget,
		Progress:             m.Progress(),
		TotalWorkingDays:     m.TotalWorkingDays,
		WorkingDaysSoFar:     m.WorkingDaysSoFar,
		RemainingWorkingDays: m.RemainingWorkingDays,
		LateCount:            m.LateCount,
		LatePercent:          m.LatePercent(),
		PendingLogs:          m.PendingLogs,
		Shortfall:            m.Shortfall(),
		CatchUpPerDay:        m.CatchUpPerDay(),
		Session: SessionResponse{
			Active:         session.Active,
			RecordID:       session.RecordID,
			ElapsedSeconds: int64(session.Elapsed / time.Second),
			ElapsedText:    metrics.FormatElapsed(session),
		},
		Today:            m.TodayRecord,
		Weekly:           make([]WeekdayResponse, 0, len(m.Weekly)),
		Recent:           make([]ActivityResponse, 0, len(snap.Recent)),
		InvalidRecordIDs: m.InvalidRecordIDs,
	}
	if session.Active {
		checkIn := session.CheckIn
		resp.Session.CheckIn = &checkIn
	}

	for _, w := range m.Weekly {
		resp.Weekly = append(resp.Weekly, WeekdayResponse{
			Label:      w.Label,
			Date:       w.Date.Format(dateutil.DateLayout),
			Hours:      w.Hours,
			Progress:   w.Progress,
			InProgress: w.InProgress,
			Value:      w.Value(),
		})
	}
	for _, a := range snap.Recent {
		resp.Recent = append(resp.Recent, ActivityResponse(a))
	}

	return resp
}

type DayResponse struct {
	Date      string             `json:"date"`
	Class     metrics.DayClass   `json:"class"`
	Hours     *float64           `json:"hours"`
	HoursText string             `json:"hours_text"`
	Invalid   bool               `json:"invalid,omitempty"`
	Record    *attendance.Record `json:"record,omitempty"`
}

// HistoryResponse is one month grid
type HistoryResponse struct {
	Month       string        `json:"month"`
	TotalHours  float64       `json:"total_hours"`
	PendingLogs int           `json:"pending_logs"`
	Days        []DayResponse `json:"days"`
}

func newHistoryResponse(h *timemanager.History) HistoryResponse {
	resp := HistoryResponse{
		Month:       h.Month.Format(dateutil.MonthLayout),
		TotalHours:  h.Metrics.TotalHours,
		PendingLogs: h.Metrics.PendingLogs,
		Days:        make([]DayResponse, 0, len(h.Days)),
	}
	for _, d := range h.Days {
		resp.Days = append(resp.Days, DayResponse{
			Date:      d.Date.Format(dateutil.DateLayout),
			Class:     d.Class,
			Hours:     d.Hours,
			HoursText: d.HoursText(),
			Invalid:   d.Invalid,
			Record:    d.Record,
		})
	}
	return resp
}

type PendingResponse struct {
	Month string   `json:"month"`
	Count int      `json:"count"`
	Dates []string `json:"dates"`
}

func newPendingResponse(month time.Time, dates []time.Time) PendingResponse {
	resp := PendingResponse{
		Month: month.Format(dateutil.MonthLayout),
		Count: len(dates),
		Dates: make([]string, 0, len(dates)),
	}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format(dateutil.DateLayout))
	}
	return resp
}
