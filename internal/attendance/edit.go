package attendance

import (
	"errors"
	"time"

	"github.com/username/attendance-tracker/pkg/dateutil"
)

// NonWorkingCheckInMinutes places leave/holiday markers at 09:00 of their date
const NonWorkingCheckInMinutes = 9 * 60

// Edit is a user change to one day, as sent back by a view.
// Times are wall-clock "HH:MM" on Date, in Date's location.
type Edit struct {
	RecordID     string    `json:"id,omitempty"`
	Date         time.Time `json:"date"`
	Kind         DayKind   `json:"day_type"`
	CheckInTime  string    `json:"check_in_time,omitempty"`
	CheckOutTime string    `json:"check_out_time,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// ValidatedEdit is an Edit whose times have been resolved to instants
type ValidatedEdit struct {
	Edit
	CheckIn  time.Time
	CheckOut *time.Time
}

// Validate resolves the edit against today's date. A working or half-day
// entry needs a check-in; a past day also needs a check-out, while today
// may stay open. Leave and holiday entries carry no session times.
func (e Edit) Validate(now time.Time) (ValidatedEdit, error) {
	var errs ValidationErrors

	if e.Date.IsZero() {
		errs = append(errs, &FieldError{Field: "date", Err: ErrMissingRequiredField})
		return ValidatedEdit{}, errs
	}

	kind := e.Kind
	if kind == "" {
		kind = DayKindWorking
	}
	if _, err := ParseDayKind(string(kind)); err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			errs = append(errs, fe)
		}
		return ValidatedEdit{}, errs
	}

	out := ValidatedEdit{Edit: e}
	out.Kind = kind
	date := dateutil.StartOfDay(e.Date)

	if kind == DayKindLeave || kind == DayKindHoliday {
		out.CheckIn = dateutil.AtClock(date, NonWorkingCheckInMinutes)
		out.CheckOut = nil
		return out, nil
	}

	isToday := dateutil.IsSameDay(date, now.In(date.Location()))

	if e.CheckInTime == "" {
		errs = append(errs, &FieldError{Field: "check_in_time", Err: ErrMissingRequiredField})
	}
	if e.CheckOutTime == "" && !isToday {
		errs = append(errs, &FieldError{Field: "check_out_time", Err: ErrMissingRequiredField})
	}
	if len(errs) > 0 {
		return ValidatedEdit{}, errs
	}

	inMinutes, err := dateutil.ParseClock(e.CheckInTime)
	if err != nil {
		errs = append(errs, &FieldError{Field: "check_in_time", Err: ErrInvalidClock})
	}
	var outMinutes int
	if e.CheckOutTime != "" {
		outMinutes, err = dateutil.ParseClock(e.CheckOutTime)
		if err != nil {
			errs = append(errs, &FieldError{Field: "check_out_time", Err: ErrInvalidClock})
		}
	}
	if len(errs) > 0 {
		return ValidatedEdit{}, errs
	}

	out.CheckIn = dateutil.AtClock(date, inMinutes)
	if e.CheckOutTime != "" {
		checkOut := dateutil.AtClock(date, outMinutes)
		if !checkOut.After(out.CheckIn) {
			return ValidatedEdit{}, ValidationErrors{{Field: "check_out_time", Err: ErrInvalidTimeRange}}
		}
		out.CheckOut = &checkOut
	}

	return out, nil
}
