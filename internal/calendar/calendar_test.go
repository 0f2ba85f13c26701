package calendar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWeekdayCalendar_DefaultSundayToThursday(t *testing.T) {
	cal := NewWeekdayCalendar(DefaultWorkingWeekdays...)

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"Sunday is working", time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), true},
		{"Monday is working", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"Thursday is working", time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), true},
		{"Friday is off", time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), false},
		{"Saturday is off", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsWorkday(tt.date); got != tt.want {
				t.Errorf("IsWorkday(%s) = %v, want %v", tt.date.Format("2006-01-02 Mon"), got, tt.want)
			}
		})
	}
}

func TestWeekdayCalendar_Weekdays(t *testing.T) {
	cal := NewWeekdayCalendar(time.Friday, time.Monday, time.Monday)
	got := cal.Weekdays()

	if len(got) != 2 || got[0] != time.Monday || got[1] != time.Friday {
		t.Errorf("Weekdays() = %v, want [Monday Friday]", got)
	}
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"sunday", "Mon", " TUESDAY "})
	if err != nil {
		t.Fatalf("ParseWeekdays() error = %v", err)
	}
	want := []time.Weekday{time.Sunday, time.Monday, time.Tuesday}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %v, want %v", i, days[i], want[i])
		}
	}

	if _, err := ParseWeekdays([]string{"funday"}); err == nil {
		t.Error("ParseWeekdays() expected error for unknown weekday")
	}
}

func TestCompositeCalendar_OverridesWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calendar.txt")
	content := "# overrides\n" +
		"2024-03-04 holiday National day\n" +
		"2024-03-08 workday\n" +
		"bad line\n" +
		"2024-03-09 vacation\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	cal := NewCompositeCalendar(
		NewWeekdayCalendar(DefaultWorkingWeekdays...),
		NewFileCalendar(path, logger),
		logger,
	)
	if err := cal.LoadOverrides(); err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)
	if cal.IsWorkday(monday) {
		t.Error("holiday override on Monday should not be a workday")
	}
	if info := cal.GetDayInfo(monday); info.Note != "National day" || info.Type != DayTypeHoliday {
		t.Errorf("GetDayInfo(monday) = %+v", info)
	}

	friday := time.Date(2024, 3, 8, 0, 0, 0, 0, time.Local)
	if !cal.IsWorkday(friday) {
		t.Error("workday override on Friday should be a workday")
	}

	tuesday := time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)
	if !cal.IsWorkday(tuesday) {
		t.Error("Tuesday without override should follow the weekday set")
	}

	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local)
	if cal.IsWorkday(saturday) {
		t.Error("unknown override type must be ignored")
	}
}

func TestFileCalendar_MissingFile(t *testing.T) {
	fc := NewFileCalendar(filepath.Join(t.TempDir(), "absent.txt"), zap.NewNop())
	if err := fc.Load(); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestFileCalendar_ICSFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.ics")
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//holidays//EN",
		"BEGIN:VEVENT",
		"UID:eid@test",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;VALUE=DATE:20240410",
		"DTEND;VALUE=DATE:20240412",
		"SUMMARY:Eid al-Fitr",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:single@test",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;VALUE=DATE:20240501",
		"SUMMARY:Labour Day",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:meeting@test",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240402T100000Z",
		"DTEND:20240402T110000Z",
		"SUMMARY:Standup",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fc := NewFileCalendar(path, zap.NewNop())
	if err := fc.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name     string
		date     time.Time
		wantHit  bool
		wantNote string
	}{
		{"first day of range", time.Date(2024, 4, 10, 0, 0, 0, 0, time.Local), true, "Eid al-Fitr"},
		{"second day of range", time.Date(2024, 4, 11, 0, 0, 0, 0, time.Local), true, "Eid al-Fitr"},
		{"DTEND is exclusive", time.Date(2024, 4, 12, 0, 0, 0, 0, time.Local), false, ""},
		{"single day without DTEND", time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), true, "Labour Day"},
		{"timed events are skipped", time.Date(2024, 4, 2, 0, 0, 0, 0, time.Local), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := fc.Lookup(tt.date)
			if ok != tt.wantHit {
				t.Fatalf("Lookup(%s) hit = %v, want %v", tt.date.Format("2006-01-02"), ok, tt.wantHit)
			}
			if ok && (info.Type != DayTypeHoliday || info.Note != tt.wantNote || info.IsWorkday) {
				t.Errorf("Lookup(%s) = %+v", tt.date.Format("2006-01-02"), info)
			}
		})
	}
}
