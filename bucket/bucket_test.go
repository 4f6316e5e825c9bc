package bucket

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/model"
)

var jst = time.FixedZone("JST", 9*60*60)

func labels(points []model.BucketPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func keys(points []model.BucketPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.BucketKey
	}
	return out
}

func TestBuildSequence_Hour(t *testing.T) {
	anchor := time.Date(2024, 3, 5, 14, 37, 0, 0, jst)
	records := []model.CountRecord{
		{BucketKey: "2024-03-05 14", Count: 3},
		{BucketKey: "2024-03-04 15", Count: 7},
		{BucketKey: "2024-03-04 14", Count: 100}, // just outside the window
	}

	points := BuildSequence(records, Window{Granularity: Hour, Size: 24}, anchor)

	if len(points) != 24 {
		t.Fatalf("expected 24 points, got %d", len(points))
	}
	if points[0].Label != "15:00" || points[0].Count != 7 {
		t.Errorf("unexpected first point: %+v", points[0])
	}
	if points[23].Label != "14:00" || points[23].Count != 3 {
		t.Errorf("unexpected last point: %+v", points[23])
	}
	total := 0
	for _, p := range points {
		total += p.Count
		if p.BucketKey != "" {
			t.Errorf("hour points must not carry a bucket key: %+v", p)
		}
	}
	if total != 10 {
		t.Errorf("expected total 10, got %d", total)
	}
}

func TestBuildSequence_Day(t *testing.T) {
	tests := []struct {
		name         string
		anchor       time.Time
		window       Window
		expectedKeys []string
		expectedLbls []string
		description  string
	}{
		{
			name:         "week across leap day",
			anchor:       time.Date(2024, 3, 5, 14, 37, 0, 0, jst),
			window:       Window{Granularity: Day, Size: 7},
			expectedKeys: []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"},
			expectedLbls: []string{"Wed", "Thu", "Fri", "Sat", "Sun", "Mon", "Tue"},
			description:  "7日間のウィンドウは曜日ラベルになること",
		},
		{
			name:         "offset one day",
			anchor:       time.Date(2024, 3, 5, 14, 37, 0, 0, jst),
			window:       Window{Granularity: Day, Size: 3, OffsetDays: 1},
			expectedKeys: []string{"2024-03-02", "2024-03-03", "2024-03-04"},
			expectedLbls: []string{"Sat", "Sun", "Mon"},
			description:  "オフセット分だけ過去にずれること",
		},
		{
			name:         "before day start",
			anchor:       time.Date(2024, 3, 5, 3, 0, 0, 0, jst),
			window:       Window{Granularity: Day, Size: 2, DayStartHour: 4},
			expectedKeys: []string{"2024-03-03", "2024-03-04"},
			expectedLbls: []string{"Sun", "Mon"},
			description:  "日の開始時刻より前は前日として扱われること",
		},
		{
			name:         "year boundary",
			anchor:       time.Date(2025, 1, 2, 12, 0, 0, 0, jst),
			window:       Window{Granularity: Day, Size: 3},
			expectedKeys: []string{"2024-12-31", "2025-01-01", "2025-01-02"},
			expectedLbls: []string{"Tue", "Wed", "Thu"},
			description:  "年をまたいでも連続すること",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := BuildSequence(nil, tt.window, tt.anchor)
			if diff := cmp.Diff(tt.expectedKeys, keys(points)); diff != "" {
				t.Errorf("%s: keys (-want +got):\n%s", tt.description, diff)
			}
			if diff := cmp.Diff(tt.expectedLbls, labels(points)); diff != "" {
				t.Errorf("%s: labels (-want +got):\n%s", tt.description, diff)
			}
		})
	}
}

func TestBuildSequence_MonthLabels(t *testing.T) {
	anchor := time.Date(2024, 3, 5, 12, 0, 0, 0, jst)
	points := BuildSequence(nil, Window{Granularity: Day, Size: 30}, anchor)

	if len(points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(points))
	}
	if points[0].BucketKey != "2024-02-05" || points[0].Label != "5" {
		t.Errorf("unexpected first point: %+v", points[0])
	}
	if points[29].BucketKey != "2024-03-05" || points[29].Label != "5" {
		t.Errorf("unexpected last point: %+v", points[29])
	}

	seen := map[string]bool{}
	for i, p := range points {
		if seen[p.BucketKey] {
			t.Errorf("duplicate key %s", p.BucketKey)
		}
		seen[p.BucketKey] = true
		if i > 0 && p.BucketKey <= points[i-1].BucketKey {
			t.Errorf("keys not ascending at %d: %s <= %s", i, p.BucketKey, points[i-1].BucketKey)
		}
	}
}

func TestBuildSequence_Counts(t *testing.T) {
	anchor := time.Date(2024, 3, 5, 12, 0, 0, 0, jst)
	records := []model.CountRecord{
		{BucketKey: "2024-03-04", Count: 1},
		{BucketKey: "2024-03-04", Count: 9}, // duplicate: last write wins
		{BucketKey: "2024-03-05 12", Count: 5},
	}

	points := BuildSequence(records, Window{Granularity: Day, Size: 2}, anchor)
	want := []model.BucketPoint{
		{Label: "Mon", Count: 9, BucketKey: "2024-03-04"},
		{Label: "Tue", Count: 0, BucketKey: "2024-03-05"},
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSequence_EmptyWindow(t *testing.T) {
	points := BuildSequence(nil, Window{Granularity: Day, Size: 0}, time.Now())
	if points == nil || len(points) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", points)
	}
}

func TestBuildSequence_Deterministic(t *testing.T) {
	anchor := time.Date(2024, 3, 5, 12, 0, 0, 0, jst)
	records := []model.CountRecord{{BucketKey: "2024-03-05 11", Count: 2}}
	w := Window{Granularity: Hour, Size: 24, OffsetDays: 0}

	first := BuildSequence(records, w, anchor)
	second := BuildSequence(records, w, anchor)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same inputs produced different output:\n%s", diff)
	}
}

func TestBuildHoursForDate(t *testing.T) {
	records := []model.CountRecord{
		{BucketKey: "2024-03-05 00", Count: 1},
		{BucketKey: "2024-03-05 23", Count: 2},
		{BucketKey: "2024-03-06 00", Count: 99},
	}
	points := BuildHoursForDate(records, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	if len(points) != 24 {
		t.Fatalf("expected 24 points, got %d", len(points))
	}
	if points[0] != (model.BucketPoint{Label: "00:00", Count: 1}) {
		t.Errorf("unexpected first point: %+v", points[0])
	}
	if points[23] != (model.BucketPoint{Label: "23:00", Count: 2}) {
		t.Errorf("unexpected last point: %+v", points[23])
	}
}

func TestAggregator(t *testing.T) {
	a := NewAggregator(clock.Fixed(time.Date(2024, 3, 5, 14, 37, 0, 0, jst)), 4)

	if got := len(a.Hourly(nil, 0)); got != 24 {
		t.Errorf("Hourly: expected 24 points, got %d", got)
	}
	if got := len(a.Weekly(nil, 0)); got != 7 {
		t.Errorf("Weekly: expected 7 points, got %d", got)
	}
	monthly := a.Monthly(nil, 2)
	if len(monthly) != 30 || monthly[29].BucketKey != "2024-03-03" {
		t.Errorf("Monthly: unexpected output %+v", monthly[len(monthly)-1])
	}

	points, err := a.HoursForDate(nil, "2024-03-01")
	if err != nil || len(points) != 24 {
		t.Errorf("HoursForDate: got %d points, err %v", len(points), err)
	}
	if _, err := a.HoursForDate(nil, "yesterday"); err == nil {
		t.Error("HoursForDate: expected error for malformed date")
	}
}

func TestHourlyTitle(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		offset   int
		expected string
	}{
		{"spans two days", time.Date(2024, 3, 5, 14, 37, 0, 0, jst), 0, "Mar 4 - Mar 5"},
		{"single day", time.Date(2024, 3, 5, 23, 10, 0, 0, jst), 0, "Mar 5"},
		{"with offset", time.Date(2024, 3, 5, 23, 10, 0, 0, jst), 5, "Feb 29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator(clock.Fixed(tt.now), 0)
			if got := a.HourlyTitle(tt.offset); got != tt.expected {
				t.Errorf("HourlyTitle(%d) = %q, want %q", tt.offset, got, tt.expected)
			}
		})
	}
}

func TestFocusedDateTitle(t *testing.T) {
	got, err := FocusedDateTitle("2024-03-05")
	if err != nil {
		t.Fatalf("FocusedDateTitle failed: %v", err)
	}
	if got != "Tue, Mar 5, 2024" {
		t.Errorf("unexpected title %q", got)
	}
}
