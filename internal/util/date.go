package util

import (
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dayFirstLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2-1-2006 15:04:05",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseDayFirst reads a DD/MM/YYYY style cell into a calendar date. Numeric
// cells are taken as spreadsheet serial dates. Anything else yields nil.
func ParseDayFirst(cell any) *time.Time {
	switch v := cell.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return calendarDate(v)
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return calendarDate(*v)
	case float64:
		return fromSerial(v)
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return parseDayFirstText(v)
	default:
		return nil
	}
}

func parseDayFirstText(input string) *time.Time {
	value := strings.TrimSpace(input)
	if value == "" {
		return nil
	}
	for _, layout := range dayFirstLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return calendarDate(parsed)
		}
	}
	return nil
}

func fromSerial(serial float64) *time.Time {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	parsed, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	return calendarDate(parsed)
}

func calendarDate(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// Today is the calendar date of now, comparable with ParseDayFirst results.
func Today(now time.Time) time.Time {
	return *calendarDate(now)
}

func FormatDayFirst(t time.Time) string {
	return t.Format("02/01/2006")
}
