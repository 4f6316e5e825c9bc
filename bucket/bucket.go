// Package bucket turns sparse count records into dense, gap-filled bucket sequences.
//
// The upstream server only reports buckets that saw activity. Every function
// here walks the requested window bucket by bucket, oldest first, and looks
// each key up in the sparse set, so the output always has exactly the
// requested length regardless of how much data came back.
package bucket

import (
	"fmt"
	"strconv"
	"time"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/model"
)

// Granularity is the width of one bucket.
type Granularity int

const (
	Hour Granularity = iota
	Day
)

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// Window selects the buckets of one sequence.
type Window struct {
	Granularity Granularity
	// Size is the number of buckets. Sizes of 0 or less yield an empty sequence.
	Size int
	// OffsetDays moves the window back by whole calendar days.
	OffsetDays int
	// DayStartHour moves the day boundary of Day buckets to DayStartHour:00.
	// Hour buckets are not affected.
	DayStartHour int
}

// weekdayLabelMax is the largest day window labeled with weekday names.
// Longer windows use the day of month.
const weekdayLabelMax = 7

// BuildSequence returns w.Size points ending at the bucket containing
// anchor - w.OffsetDays days. Day points carry their bucket key for drill-down.
// Keys and labels follow anchor's location.
func BuildSequence(records []model.CountRecord, w Window, anchor time.Time) []model.BucketPoint {
	if w.Size <= 0 {
		return []model.BucketPoint{}
	}

	counts := indexCounts(records)
	ref := anchor.AddDate(0, 0, -w.OffsetDays)
	points := make([]model.BucketPoint, 0, w.Size)

	switch w.Granularity {
	case Hour:
		y, m, d := ref.Date()
		top := time.Date(y, m, d, ref.Hour(), 0, 0, 0, ref.Location())
		for i := w.Size - 1; i >= 0; i-- {
			t := top.Add(-time.Duration(i) * time.Hour)
			points = append(points, model.BucketPoint{
				Label: hourLabel(t.Hour()),
				Count: counts[model.HourKey(t)],
			})
		}
	case Day:
		today := clock.CivilDate(ref.Add(-time.Duration(w.DayStartHour) * time.Hour))
		for i := w.Size - 1; i >= 0; i-- {
			t := today.AddDate(0, 0, -i)
			key := model.DayKey(t)
			points = append(points, model.BucketPoint{
				Label:     dayLabel(t, w.Size),
				Count:     counts[key],
				BucketKey: key,
			})
		}
	}

	return points
}

// BuildHoursForDate returns the 24 hours of the calendar date of day, 00:00 first.
func BuildHoursForDate(records []model.CountRecord, day time.Time) []model.BucketPoint {
	counts := indexCounts(records)
	dayKey := model.DayKey(day)

	points := make([]model.BucketPoint, 24)
	for h := range 24 {
		points[h] = model.BucketPoint{
			Label: hourLabel(h),
			Count: counts[fmt.Sprintf("%s %02d", dayKey, h)],
		}
	}
	return points
}

// indexCounts maps bucket keys to counts. Later records win.
func indexCounts(records []model.CountRecord) map[string]int {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.BucketKey] = r.Count
	}
	return counts
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func dayLabel(t time.Time, size int) string {
	if size <= weekdayLabelMax {
		return t.Format("Mon")
	}
	return strconv.Itoa(t.Day())
}
