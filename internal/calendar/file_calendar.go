package calendar

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileCalendar holds dated overrides loaded from a local file: public
// holidays that fall on working weekdays, or extra working days. The file
// is either plain text or, with an .ics extension, an iCalendar feed.
type FileCalendar struct {
	filePath string
	logger   *zap.Logger
	data     map[string]DayInfo // key: "YYYY-MM-DD"
}

// NewFileCalendar creates a new FileCalendar instance
func NewFileCalendar(filePath string, logger *zap.Logger) *FileCalendar {
	return &FileCalendar{
		filePath: filePath,
		logger:   logger,
		data:     make(map[string]DayInfo),
	}
}

// Load loads calendar data from file
func (fc *FileCalendar) Load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(fc.filePath), ".ics") {
		if err := fc.loadICS(file); err != nil {
			return err
		}
		fc.logger.Info("Calendar feed loaded",
			zap.String("file", fc.filePath),
			zap.Int("holidays", len(fc.data)))
		return nil
	}

	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD type [note]
		// Example: 2024-04-10 holiday Eid al-Fitr
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 {
			fc.logger.Warn("Invalid line format", zap.String("line", line))
			continue
		}

		date, err := time.ParseInLocation("2006-01-02", parts[0], time.Local)
		if err != nil {
			fc.logger.Warn("Failed to parse date", zap.String("date", parts[0]), zap.Error(err))
			continue
		}

		note := ""
		if len(parts) == 3 {
			note = parts[2]
		}

		var dayType DayType
		switch parts[1] {
		case "workday":
			dayType = DayTypeWorkday
		case "weekend":
			dayType = DayTypeWeekend
		case "holiday":
			dayType = DayTypeHoliday
		default:
			fc.logger.Warn("Unknown day type", zap.String("type", parts[1]))
			continue
		}

		fc.data[parts[0]] = DayInfo{
			Date:      date,
			Type:      dayType,
			IsWorkday: dayType == DayTypeWorkday,
			Note:      note,
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading calendar file: %w", err)
	}

	fc.logger.Info("Calendar file loaded",
		zap.String("file", fc.filePath),
		zap.Int("overrides", len(fc.data)))

	return nil
}

// Lookup returns the override for the date, if the file has one
func (fc *FileCalendar) Lookup(date time.Time) (DayInfo, bool) {
	info, ok := fc.data[date.Format("2006-01-02")]
	return info, ok
}

// IsWorkday reports true only for dates explicitly listed as workdays
func (fc *FileCalendar) IsWorkday(date time.Time) bool {
	info, ok := fc.Lookup(date)
	return ok && info.IsWorkday
}

// GetDayInfo returns the override, or a plain weekend entry when absent
func (fc *FileCalendar) GetDayInfo(date time.Time) DayInfo {
	if info, ok := fc.Lookup(date); ok {
		return info
	}
	return DayInfo{Date: date, Type: DayTypeWeekend}
}
