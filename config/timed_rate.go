package config

import (
	"fmt"
	"time"

	timeutils "github.com/cepro/solarsim/time_utils"
)

// TimedRate represents a p/kWh that only applies at certain times of day
type TimedRate struct {
	Rate    float64                 `json:"rate"`
	Periods []timeutils.DayedPeriod `json:"periods"`
}

// Tariff gives the p/kWh rate for grid energy. The first matching timed rate applies, or the flat rate if none match.
type Tariff struct {
	FlatRate   float64     `json:"flatRate"`
	TimedRates []TimedRate `json:"timedRates"`
}

// perKwhRate returns the applicable p/kWh rate and a boolean indicating if the rate applies to the given time or not.
func (r *TimedRate) perKwhRate(t time.Time) (float64, bool) {
	for _, dayedPeriod := range r.Periods {
		if dayedPeriod.Contains(t) {
			return r.Rate, true
		}
	}
	return 0, false
}

// FirstTimedRate returns the first of the given rates that apply for the given `t` if one was found, and a boolean
// indicating if an applicable rate was found.
func FirstTimedRate(t time.Time, rates []TimedRate) (float64, bool) {
	for _, rate := range rates {
		r, found := rate.perKwhRate(t)
		if found {
			return r, true
		}
	}
	return 0, false
}

// RateAt returns the p/kWh rate at `t`.
func (t Tariff) RateAt(at time.Time) float64 {
	rate, found := FirstTimedRate(at, t.TimedRates)
	if found {
		return rate
	}
	return t.FlatRate
}

func (t Tariff) validate(name string) error {
	for i, rate := range t.TimedRates {
		for _, period := range rate.Periods {
			if !timeutils.ValidDays(period.Days) {
				return fmt.Errorf("%s timed rate %d: days must be 'all', 'weekdays' or 'weekends', got '%s'", name, i, period.Days)
			}
			if period.End.FractionalHour() < period.Start.FractionalHour() {
				return fmt.Errorf("%s timed rate %d: periods must not cross midnight", name, i)
			}
		}
	}
	return nil
}

func (t Tariff) inLocation(loc *time.Location) {
	for i := range t.TimedRates {
		for j := range t.TimedRates[i].Periods {
			period := &t.TimedRates[i].Periods[j]
			period.ClockTimePeriod = period.ClockTimePeriod.InLocation(loc)
		}
	}
}
