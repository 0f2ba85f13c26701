package response

import (
	"errors"
	"net/http"

	"github.com/username/attendance-tracker/internal/attendance"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Rejected edits report every offending field
	var validationErrs attendance.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}
	var fieldErr *attendance.FieldError
	if errors.As(err, &fieldErr) {
		ValidationError(w, map[string]string{fieldErr.Field: fieldErr.Err.Error()})
		return
	}

	switch {
	// Request errors
	case errors.Is(err, attendance.ErrInvalidTimeRange),
		errors.Is(err, attendance.ErrMissingRequiredField),
		errors.Is(err, attendance.ErrInvalidDayKind),
		errors.Is(err, attendance.ErrInvalidClock):
		BadRequest(w, err.Error(), nil)

	// Session errors
	case errors.Is(err, attendance.ErrSessionAlreadyActive):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNoActiveSession):
		Conflict(w, err.Error())

	// Store errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
