package bucket

import (
	"time"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/model"
)

// Aggregator builds the dashboard's bar chart sequences relative to a clock.
type Aggregator struct {
	clock        clock.Clock
	dayStartHour int
}

// NewAggregator returns an Aggregator whose daily buckets start at dayStartHour:00.
func NewAggregator(c clock.Clock, dayStartHour int) *Aggregator {
	return &Aggregator{clock: c, dayStartHour: dayStartHour}
}

// DayStartHour returns the configured day boundary.
func (a *Aggregator) DayStartHour() int {
	return a.dayStartHour
}

// Hourly returns the 24 hours ending at the current hour, offsetDays days ago.
func (a *Aggregator) Hourly(records []model.CountRecord, offsetDays int) []model.BucketPoint {
	return BuildSequence(records, Window{Granularity: Hour, Size: 24, OffsetDays: offsetDays}, a.clock.Now())
}

// Daily returns size days ending today, offsetDays days ago.
func (a *Aggregator) Daily(records []model.CountRecord, size, offsetDays int) []model.BucketPoint {
	return BuildSequence(records, Window{
		Granularity:  Day,
		Size:         size,
		OffsetDays:   offsetDays,
		DayStartHour: a.dayStartHour,
	}, a.clock.Now())
}

// Weekly returns the last 7 days.
func (a *Aggregator) Weekly(records []model.CountRecord, offsetDays int) []model.BucketPoint {
	return a.Daily(records, model.WeekWindow, offsetDays)
}

// Monthly returns the last 30 days.
func (a *Aggregator) Monthly(records []model.CountRecord, offsetDays int) []model.BucketPoint {
	return a.Daily(records, model.MonthWindow, offsetDays)
}

// HoursForDate returns the 24 hours of a "YYYY-MM-DD" date.
func (a *Aggregator) HoursForDate(records []model.CountRecord, date string) ([]model.BucketPoint, error) {
	day, err := model.ParseDayKey(date)
	if err != nil {
		return nil, err
	}
	return BuildHoursForDate(records, day), nil
}

// HourlyTitle describes the hourly window, e.g. "Mar 4 - Mar 5" or "Mar 5"
// when all 24 hours fall on one day.
func (a *Aggregator) HourlyTitle(offsetDays int) string {
	end := a.clock.Now().AddDate(0, 0, -offsetDays)
	start := end.Add(-23 * time.Hour)
	if clock.CivilDate(start).Equal(clock.CivilDate(end)) {
		return end.Format("Jan 2")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}

// FocusedDateTitle formats a drill-down date, e.g. "Tue, Mar 5, 2024".
func FocusedDateTitle(date string) (string, error) {
	day, err := model.ParseDayKey(date)
	if err != nil {
		return "", err
	}
	return day.Format("Mon, Jan 2, 2006"), nil
}
