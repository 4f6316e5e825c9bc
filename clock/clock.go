// Package clock provides the current instant and the viewer's time zone.
//
// Every builder that needs "now" takes a Clock so the same inputs always
// produce the same output in tests.
package clock

import "time"

// Clock reports the current instant in the viewer's local zone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// System returns a Clock backed by time.Now. A nil location means time.Local.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) Location() *time.Location {
	return c.loc
}

type fixedClock struct {
	t time.Time
}

// Fixed returns a Clock that always reports t, in t's location.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

func (c fixedClock) Now() time.Time {
	return c.t
}

func (c fixedClock) Location() *time.Location {
	return c.t.Location()
}

// LoadLocation resolves a zone name. "" and "Local" map to time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// CivilDate returns t's calendar date as midnight UTC.
// Day arithmetic on the result never crosses a DST transition.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now once the day boundary is moved to
// dayStartHour:00. With dayStartHour 4, 03:59 still belongs to yesterday.
func Today(c Clock, dayStartHour int) time.Time {
	return CivilDate(c.Now().Add(-time.Duration(dayStartHour) * time.Hour))
}
