package timeutils

import (
	"fmt"
	"time"
)

// ClockTime represents a time of day in the given locale, without a date.
type ClockTime struct {
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

// ParseClockTime parses a "15:04" or "15:04:05" string into a ClockTime in the given location.
func ParseClockTime(str string, location *time.Location) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, str)
		if err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Location: location}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("parse clock time '%s': expected HH:MM or HH:MM:SS", str)
}

// OnDate returns a time with the given clock time on the given date
func (c *ClockTime) OnDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, c.Location)
}

// FractionalHour returns the clock time as hours since midnight, e.g. 06:30 is 6.5
func (c *ClockTime) FractionalHour() float64 {
	return float64(c.Hour) + float64(c.Minute)/60 + float64(c.Second)/3600
}
