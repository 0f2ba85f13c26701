package attendance

import (
	"errors"
	"strings"
)

// Attendance domain errors
var (
	// Edit validation errors
	ErrInvalidTimeRange     = errors.New("check-out time must be after check-in time")
	ErrMissingRequiredField = errors.New("required field is missing")
	ErrInvalidDayKind       = errors.New("day type must be one of: working, half-day, leave, holiday")
	ErrInvalidClock         = errors.New("time must be in HH:MM format")

	// Session errors
	ErrNoActiveSession      = errors.New("no active session to end")
	ErrSessionAlreadyActive = errors.New("a session is already in progress")

	// Store errors
	ErrRecordNotFound = errors.New("attendance record not found")
)

// FieldError ties a domain error to the edit field that caused it
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field problem of one edit
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual field errors to errors.Is / errors.As
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, err := range v {
		errs[i] = err
	}
	return errs
}

// ToMap returns field -> message, for presentation
func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Err.Error()
	}
	return result
}
