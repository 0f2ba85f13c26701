package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the attendance status stored with a record
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusHalfDay Status = "Half Day"
	StatusOnLeave Status = "On Leave"
	StatusHoliday Status = "Holiday"
)

// ParseStatus validates a stored status value
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPresent, StatusLate, StatusHalfDay, StatusOnLeave, StatusHoliday:
		return st, nil
	default:
		return "", fmt.Errorf("unknown attendance status %q", s)
	}
}

// IsWorking is false for statuses that mark a non-working day
// (leave, holiday); their check-out carries no meaning.
func (s Status) IsWorking() bool {
	return s != StatusOnLeave && s != StatusHoliday
}

// DayKind is the day type a user picks when editing a day
type DayKind string

const (
	DayKindWorking DayKind = "working"
	DayKindHalfDay DayKind = "half-day"
	DayKindLeave   DayKind = "leave"
	DayKindHoliday DayKind = "holiday"
)

// ParseDayKind validates a day kind coming from a view
func ParseDayKind(s string) (DayKind, error) {
	switch k := DayKind(s); k {
	case DayKindWorking, DayKindHalfDay, DayKindLeave, DayKindHoliday:
		return k, nil
	default:
		return "", &FieldError{Field: "day_type", Err: ErrInvalidDayKind}
	}
}

// KindOf maps a stored status back to the day kind shown in edit forms
func KindOf(s Status) DayKind {
	switch s {
	case StatusOnLeave:
		return DayKindLeave
	case StatusHoliday:
		return DayKindHoliday
	case StatusHalfDay:
		return DayKindHalfDay
	default:
		return DayKindWorking
	}
}

// Timestamp is an instant read from a record store.
// A value that could not be parsed keeps its input text in Raw,
// so one bad row degrades to "invalid" instead of failing a whole fetch.
type Timestamp struct {
	time.Time
	Raw string
}

// NewTimestamp wraps a parsed instant
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s in any of the formats record stores emit.
// It never fails; check Valid on the result.
func ParseTimestamp(s string) Timestamp {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999-07",      // Postgres timestamptz with short offset
		"2006-01-02T15:04:05.000-0700",       // Offset without colon
		"2006-01-02 15:04:05.999999-07",      // Postgres text output
		"2006-01-02 15:04:05.999999999-07:00",
	}

	for _, format := range formats {
		if parsed, err := time.Parse(format, s); err == nil {
			return Timestamp{Time: parsed}
		}
	}

	return Timestamp{Raw: s}
}

// Valid reports whether the timestamp holds a usable instant
func (t Timestamp) Valid() bool {
	return t.Raw == "" && !t.Time.IsZero()
}

// MarshalJSON writes RFC 3339, the raw text for invalid values, or null
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.Valid():
		return json.Marshal(t.Time.Format(time.RFC3339Nano))
	case t.Raw != "":
		return json.Marshal(t.Raw)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = Timestamp{Raw: string(b)}
		return nil
	}

	*t = ParseTimestamp(s)
	return nil
}

// Record is one attendance row: a session, or a leave/holiday marker
type Record struct {
	ID       string     `json:"id,omitempty"`
	OwnerID  string     `json:"user_id"`
	CheckIn  Timestamp  `json:"check_in"`
	CheckOut *Timestamp `json:"check_out"`
	Status   Status     `json:"status"`
	Notes    *string    `json:"notes"`
}

// IsOpen reports a record without check-out
func (r Record) IsOpen() bool {
	return r.CheckOut == nil
}

// Worked returns check-out minus check-in when both are valid and ordered
func (r Record) Worked() (time.Duration, bool) {
	if r.CheckOut == nil || !r.CheckIn.Valid() || !r.CheckOut.Valid() {
		return 0, false
	}
	d := r.CheckOut.Sub(r.CheckIn.Time)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Validate checks a record before it is written
func (r Record) Validate() error {
	if !r.CheckIn.Valid() {
		return &FieldError{Field: "check_in", Err: ErrMissingRequiredField}
	}
	if r.CheckOut != nil {
		if !r.CheckOut.Valid() || !r.CheckOut.After(r.CheckIn.Time) {
			return &FieldError{Field: "check_out", Err: ErrInvalidTimeRange}
		}
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return &FieldError{Field: "status", Err: err}
	}
	return nil
}

// LocalDate returns the calendar date of check-in in loc
func (r Record) LocalDate(loc *time.Location) (time.Time, bool) {
	if !r.CheckIn.Valid() {
		return time.Time{}, false
	}
	in := r.CheckIn.In(loc)
	return time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, loc), true
}
