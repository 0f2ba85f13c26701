package postgrest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/attendance-tracker/internal/attendance"
)

// row is the writable part of an attendance row.
// The id is assigned by the database and never sent.
type row struct {
	UserID   string                `json:"user_id"`
	CheckIn  attendance.Timestamp  `json:"check_in"`
	CheckOut *attendance.Timestamp `json:"check_out"`
	Status   attendance.Status     `json:"status"`
	Notes    *string               `json:"notes"`
}

func toRow(rec attendance.Record) row {
	return row{
		UserID:   rec.OwnerID,
		CheckIn:  rec.CheckIn,
		CheckOut: rec.CheckOut,
		Status:   rec.Status,
		Notes:    rec.Notes,
	}
}

// APIError is a non-2xx response.
// PostgREST reports errors as {"code","message","details","hint"}.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
	Body       string `json:"-"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: string(body)}
	_ = json.Unmarshal(body, e)
	return e
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API request failed with status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Retryable is true for throttling and server-side failures
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
