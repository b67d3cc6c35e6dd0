package timeutils

import (
	"time"
)

// ClockTimePeriod represents a period of time that is defined by local clock time, without any date information, e.g. "7am to 9am".
type ClockTimePeriod struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// AbsolutePeriod returns the equivalent `Period` for the given `ClockTimePeriod`, using `t` as the reference time that
// must be within the `ClockTimePeriod`. If `t` is outside of the `ClockTimePeriod` then `ok` is returned as false.
//
// This function is inclusive of the Period.Start, but exclusive of the Period.End.
//
// For example, the load model's evening peak of "6pm to 9pm" with a reference `t` of "2023/10/19 18:30:00" yields
// the period "2023/10/19 18:00:00 to 2023/10/19 21:00:00".
func (p *ClockTimePeriod) AbsolutePeriod(t time.Time) (Period, bool) {

	if p.Start.Location.String() != p.End.Location.String() {
		panic("Clock time period must start and end in the same timezone")
	}
	if p.End.FractionalHour() < p.Start.FractionalHour() {
		// Periods that cross midnight are not supported
		panic("Clock time period must end after it starts")
	}

	// Make sure that `t` is in the relevant timezone, otherwise the day can be wrong near midnight
	t = t.In(p.Start.Location)
	year, month, day := t.Date()

	period := Period{
		Start: p.Start.OnDate(year, month, day),
		End:   p.End.OnDate(year, month, day),
	}
	if !period.Contains(t) {
		return Period{}, false
	}
	return period, true
}

// Contains returns true if the given t is contained in the ClockTimePeriod
func (p *ClockTimePeriod) Contains(t time.Time) bool {
	_, contains := p.AbsolutePeriod(t)
	return contains
}

// Hours returns the length of the period in hours.
func (p *ClockTimePeriod) Hours() float64 {
	return p.End.FractionalHour() - p.Start.FractionalHour()
}

// InLocation returns a copy of the period with both clock times in the given location.
func (p ClockTimePeriod) InLocation(loc *time.Location) ClockTimePeriod {
	p.Start.Location = loc
	p.End.Location = loc
	return p
}
