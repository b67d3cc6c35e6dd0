package timeutils

import (
	"fmt"
	"time"
)

// Days is a string representation of the days that a DayedPeriod applies to.
type Days string

const (
	WeekendDays = "weekends"
	WeekdayDays = "weekdays"
	AllDays     = "all"
)

// DayedPeriod gives a period of time on particular days, e.g. the morning load bump "7am to 9am on weekdays".
type DayedPeriod struct {
	ClockTimePeriod      // The period in clock time
	Days            Days `json:"days"` // "weekends", "weekdays", or "all"
}

// AbsolutePeriod returns the equivalent `Period` for the given `DayedPeriod`, using `t` as the reference time.
// If `t` is on the wrong day or at the wrong time then `ok` is returned as false.
func (d *DayedPeriod) AbsolutePeriod(t time.Time) (Period, bool) {
	if !d.IsOnDay(t) {
		return Period{}, false
	}
	return d.ClockTimePeriod.AbsolutePeriod(t)
}

// Contains returns true if the given t is contained in the DayedPeriod
func (d *DayedPeriod) Contains(t time.Time) bool {
	_, contains := d.AbsolutePeriod(t)
	return contains
}

// IsOnDay returns true if t falls on one of the configured days, in the period's timezone.
func (d *DayedPeriod) IsOnDay(t time.Time) bool {
	if d.Start.Location != nil {
		t = t.In(d.Start.Location)
	}
	switch d.Days {
	case AllDays:
		return true
	case WeekdayDays:
		return IsWeekday(t)
	case WeekendDays:
		return !IsWeekday(t)
	default:
		panic(fmt.Sprintf("Unknown day specification: '%s'", d.Days))
	}
}

// ValidDays returns true if the given days string is one of the supported specifications.
func ValidDays(days Days) bool {
	return days == AllDays || days == WeekdayDays || days == WeekendDays
}
