package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
	"github.com/username/attendance-tracker/internal/handler/http/response"
	"github.com/username/attendance-tracker/internal/timemanager"
	"github.com/username/attendance-tracker/pkg/dateutil"
)

// AttendanceService is the subset of timemanager.Manager the API drives
type AttendanceService interface {
	Now() time.Time
	Refresh(ctx context.Context) (*timemanager.Snapshot, error)
	History(ctx context.Context, month time.Time) (*timemanager.History, error)
	PendingDays(ctx context.Context, month time.Time) ([]time.Time, error)
	ClockIn(ctx context.Context) (*timemanager.Snapshot, error)
	ClockOut(ctx context.Context) (*timemanager.Snapshot, error)
	SaveEntry(ctx context.Context, edit attendance.Edit) (*timemanager.Snapshot, error)
	SaveToday(ctx context.Context, edit attendance.Edit) (*timemanager.Snapshot, error)
	SetTodayKind(ctx context.Context, kind attendance.DayKind) (*timemanager.Snapshot, error)
}

type AttendanceHandler interface {
	Dashboard(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Pending(w http.ResponseWriter, r *http.Request)
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	SaveEntry(w http.ResponseWriter, r *http.Request)
	SaveToday(w http.ResponseWriter, r *http.Request)
	SetTodayKind(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService AttendanceService
	logger            *zap.Logger
}

func NewAttendanceHandler(attendanceService AttendanceService, logger *zap.Logger) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// Dashboard implements AttendanceHandler.
func (h *attendanceHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attendanceService.Refresh(r.Context())
	if err != nil {
		h.fail(w, "Failed to load dashboard", err)
		return
	}

	response.Success(w, newDashboardResponse(snap, h.attendanceService.Now()))
}

// History implements AttendanceHandler.
func (h *attendanceHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}

	history, err := h.attendanceService.History(r.Context(), month)
	if err != nil {
		h.fail(w, "Failed to load history", err)
		return
	}

	response.Success(w, newHistoryResponse(history))
}

// Pending implements AttendanceHandler.
func (h *attendanceHandlerImpl) Pending(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}

	dates, err := h.attendanceService.PendingDays(r.Context(), month)
	if err != nil {
		h.fail(w, "Failed to load pending days", err)
		return
	}

	response.Success(w, newPendingResponse(month, dates))
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attendanceService.ClockIn(r.Context())
	if err != nil {
		h.fail(w, "Clock in failed", err)
		return
	}

	response.SuccessWithMessage(w, "Clock in successful", newDashboardResponse(snap, h.attendanceService.Now()))
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attendanceService.ClockOut(r.Context())
	if err != nil {
		h.fail(w, "Clock out failed", err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", newDashboardResponse(snap, h.attendanceService.Now()))
}

// SaveEntry implements AttendanceHandler.
func (h *attendanceHandlerImpl) SaveEntry(w http.ResponseWriter, r *http.Request) {
	edit, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	snap, err := h.attendanceService.SaveEntry(r.Context(), edit)
	if err != nil {
		h.fail(w, "Failed to save entry", err)
		return
	}

	response.SuccessWithMessage(w, "Entry saved", newDashboardResponse(snap, h.attendanceService.Now()))
}

// SaveToday implements AttendanceHandler.
func (h *attendanceHandlerImpl) SaveToday(w http.ResponseWriter, r *http.Request) {
	edit, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	snap, err := h.attendanceService.SaveToday(r.Context(), edit)
	if err != nil {
		h.fail(w, "Failed to save today", err)
		return
	}

	response.SuccessWithMessage(w, "Today saved", newDashboardResponse(snap, h.attendanceService.Now()))
}

// SetTodayKind implements AttendanceHandler.
func (h *attendanceHandlerImpl) SetTodayKind(w http.ResponseWriter, r *http.Request) {
	var req DayKindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	snap, err := h.attendanceService.SetTodayKind(r.Context(), attendance.DayKind(req.DayType))
	if err != nil {
		h.fail(w, "Failed to change day type", err)
		return
	}

	response.SuccessWithMessage(w, "Day type changed", newDashboardResponse(snap, h.attendanceService.Now()))
}

func (h *attendanceHandlerImpl) decodeEntry(w http.ResponseWriter, r *http.Request) (attendance.Edit, bool) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return attendance.Edit{}, false
	}

	edit, err := req.toEdit(h.attendanceService.Now().Location())
	if err != nil {
		response.HandleError(w, err)
		return attendance.Edit{}, false
	}
	return edit, true
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month
func (h *attendanceHandlerImpl) monthParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	now := h.attendanceService.Now()
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return dateutil.StartOfMonth(now), true
	}

	month, err := dateutil.ParseMonth(raw, now.Location())
	if err != nil {
		response.BadRequest(w, "Invalid month", map[string]string{"month": "must be in YYYY-MM format"})
		return time.Time{}, false
	}
	return month, true
}

func (h *attendanceHandlerImpl) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Warn(msg, zap.Error(err))
	response.HandleError(w, err)
}
