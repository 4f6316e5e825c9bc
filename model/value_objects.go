// Package model provides value objects for API parameter validation.
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Bucket key layouts used by the upstream server.
const (
	DayKeyLayout  = "2006-01-02"
	HourKeyLayout = "2006-01-02 15"
)

// Minimum year accepted by the yearly view.
const MinYear = 1970

// DayKey formats t's calendar date as a day key.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// HourKey formats t's calendar date and hour as an hour key.
func HourKey(t time.Time) string {
	return t.Format(HourKeyLayout)
}

// IsDayKey reports whether s is a well-formed day key.
func IsDayKey(s string) bool {
	_, err := ParseDayKey(s)
	return err == nil
}

// IsHourKey reports whether s is a well-formed hour key.
func IsHourKey(s string) bool {
	_, err := time.Parse(HourKeyLayout, s)
	return err == nil
}

// ParseDayKey parses a day key into midnight UTC of that calendar date.
func ParseDayKey(s string) (time.Time, error) {
	t, err := time.Parse(DayKeyLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", s))
	}
	return t, nil
}

// Offset represents a non-negative paging offset in days.
type Offset struct {
	value int
}

// NewOffset creates a new offset value object.
// Unparsable or negative input is clamped to 0; the dashboard never pages into the future.
func NewOffset(offsetStr string) *Offset {
	if offsetStr == "" {
		return &Offset{value: 0}
	}
	v, err := strconv.Atoi(offsetStr)
	if err != nil || v < 0 {
		return &Offset{value: 0}
	}
	return &Offset{value: v}
}

// Days returns the offset in days.
func (o *Offset) Days() int {
	return o.value
}

// Year represents a calendar year accepted by the yearly view.
type Year struct {
	value int
}

// NewYear creates a new year value object.
// An empty string selects the year of now; valid years are MinYear..now.Year().
func NewYear(yearStr string, now time.Time) (*Year, error) {
	if yearStr == "" {
		return &Year{value: now.Year()}, nil
	}
	v, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, NewValidationError("invalid year parameter: must be an integer")
	}
	if v < MinYear || v > now.Year() {
		return nil, NewValidationError(fmt.Sprintf("year must be between %d and %d", MinYear, now.Year()))
	}
	return &Year{value: v}, nil
}

// Int returns the year.
func (y *Year) Int() int {
	return y.value
}

// Date represents a calendar date parameter.
type Date struct {
	value time.Time
}

// NewDate creates a new date value object from a day key.
func NewDate(dateStr string) (*Date, error) {
	t, err := ParseDayKey(dateStr)
	if err != nil {
		return nil, err
	}
	return &Date{value: t}, nil
}

// Time returns the date as midnight UTC.
func (d *Date) Time() time.Time {
	return d.value
}

// String returns the day key.
func (d *Date) String() string {
	return DayKey(d.value)
}

// Window sizes offered by the daily chart.
const (
	WeekWindow  = 7
	MonthWindow = 30
)

// Window represents the number of days in a daily chart.
type Window struct {
	value int
}

// NewWindow creates a new window value object. The default is a 30-day window.
func NewWindow(windowStr string) (*Window, error) {
	if windowStr == "" {
		return &Window{value: MonthWindow}, nil
	}
	v, err := strconv.Atoi(windowStr)
	if err != nil || (v != WeekWindow && v != MonthWindow) {
		return nil, NewValidationError(fmt.Sprintf("window must be %d or %d", WeekWindow, MonthWindow))
	}
	return &Window{value: v}, nil
}

// Days returns the window size in days.
func (w *Window) Days() int {
	return w.value
}
