package timeutils

import "time"

// Period represents an absolute period between two instances in time, e.g. "2023/10/19 16:00:00 to 2023/10/19 18:00:00".
type Period struct {
	Start time.Time
	End   time.Time
}

// Equal returns true if the two periods start and end at the same instants, regardless of timezone.
func (p Period) Equal(p2 Period) bool {
	return p.Start.Equal(p2.Start) && p.End.Equal(p2.End)
}

// Contains returns true if `t` is within the Period, inclusive of `Start` but exclusive of `End`.
func (p Period) Contains(t time.Time) bool {
	return (p.Start.Before(t) && p.End.After(t)) || p.Start.Equal(t)
}

// IsWeekday returns true if the day is Mon-Fri inclusive, or False if the day is Sat or Sun
func IsWeekday(t time.Time) bool {
	day := t.Weekday()
	return day != time.Saturday && day != time.Sunday
}
