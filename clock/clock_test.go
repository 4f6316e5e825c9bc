package clock

import (
	"testing"
	"time"
)

func TestToday(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name         string
		now          time.Time
		dayStartHour int
		want         string
		description  string
	}{
		{
			name:         "midnight boundary",
			now:          time.Date(2024, 3, 5, 0, 30, 0, 0, tokyo),
			dayStartHour: 0,
			want:         "2024-03-05",
			description:  "day start hour 0 uses the calendar date",
		},
		{
			name:         "before day start",
			now:          time.Date(2024, 3, 5, 3, 59, 0, 0, tokyo),
			dayStartHour: 4,
			want:         "2024-03-04",
			description:  "03:59 still belongs to the previous day",
		},
		{
			name:         "at day start",
			now:          time.Date(2024, 3, 5, 4, 0, 0, 0, tokyo),
			dayStartHour: 4,
			want:         "2024-03-05",
			description:  "04:00 starts the new day",
		},
		{
			name:         "year boundary",
			now:          time.Date(2025, 1, 1, 1, 0, 0, 0, tokyo),
			dayStartHour: 4,
			want:         "2024-12-31",
			description:  "shift crosses the year boundary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Today(Fixed(tt.now), tt.dayStartHour).Format("2006-01-02")
			if got != tt.want {
				t.Errorf("%s: Today() = %s, want %s", tt.description, got, tt.want)
			}
		})
	}
}

func TestSystemDefaultsToLocal(t *testing.T) {
	c := System(nil)
	if c.Location() != time.Local {
		t.Errorf("Location() = %v, want time.Local", c.Location())
	}
}

func TestLoadLocation(t *testing.T) {
	for _, name := range []string{"", "Local"} {
		loc, err := LoadLocation(name)
		if err != nil {
			t.Fatalf("LoadLocation(%q) failed: %v", name, err)
		}
		if loc != time.Local {
			t.Errorf("LoadLocation(%q) = %v, want time.Local", name, loc)
		}
	}

	if _, err := LoadLocation("UTC"); err != nil {
		t.Errorf("LoadLocation(UTC) failed: %v", err)
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("Expected error for unknown zone")
	}
}
