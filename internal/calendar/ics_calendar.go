package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
)

// icsDateLayout is the DATE value form used by all-day events
const icsDateLayout = "20060102"

// loadICS reads all-day events from an iCalendar feed as holidays.
// DTEND is exclusive; an event without one covers a single day.
// Timed events say nothing about whole days and are skipped.
func (fc *FileCalendar) loadICS(r io.Reader) error {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return fmt.Errorf("failed to parse iCalendar file: %w", err)
	}

	for i, evt := range cal.Events() {
		start, ok := icsDate(evt, ics.ComponentPropertyDtStart)
		if !ok {
			fc.logger.Debug("Skipping timed or undated event", zap.Int("index", i))
			continue
		}
		end, ok := icsDate(evt, ics.ComponentPropertyDtEnd)
		if !ok || !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}

		note := ""
		if summary := evt.GetProperty(ics.ComponentPropertySummary); summary != nil {
			note = strings.TrimSpace(summary.Value)
		}

		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			fc.data[day.Format("2006-01-02")] = DayInfo{
				Date: day,
				Type: DayTypeHoliday,
				Note: note,
			}
		}
	}

	return nil
}

// icsDate returns the property as a local date when it is a DATE value
func icsDate(evt *ics.VEvent, prop ics.ComponentProperty) (time.Time, bool) {
	p := evt.GetProperty(prop)
	if p == nil {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(icsDateLayout, strings.TrimSpace(p.Value), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
