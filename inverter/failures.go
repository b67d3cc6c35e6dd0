package inverter

import (
	"math"
	"math/rand/v2"

	"github.com/cepro/solarsim/simerrors"
	timeutils "github.com/cepro/solarsim/time_utils"
)

// minimumOutageHours is the shortest outage that a failure can cause.
const minimumOutageHours = 1.0

// failureStream separates the failure draws from the solar cloud draws when both use the same seed.
const failureStream = 1 << 32

// FailureConfig describes how often the inverter trips and for how long.
type FailureConfig struct {
	Probability       float64 // chance of a failure starting at midnight on any given day, in [0,1]
	MeanDurationHours float64 // mean outage length, outages are normally distributed with a std. dev. of half the mean
	RandomSeed        uint64
}

// FailureSchedule holds the precomputed inverter outages for every day of the year.
// Outages start at midnight and may run on into the following day(s).
type FailureSchedule struct {
	outageHours   [timeutils.MaxDayOfYear + 1]float64 // length of the outage starting on each day, 0 for no outage
	longestOutage float64
}

// NewFailureSchedule draws one failure decision per day from the seed.
func NewFailureSchedule(config FailureConfig) (*FailureSchedule, error) {
	if !(config.Probability >= 0 && config.Probability <= 1) {
		return nil, simerrors.NewConfigurationError(component, "failureProbability", config.Probability, "must be within [0,1]")
	}
	if config.Probability > 0 && !(config.MeanDurationHours > 0) {
		return nil, simerrors.NewConfigurationError(component, "failureMeanDurationHours", config.MeanDurationHours, "must be greater than zero when failures are enabled")
	}

	schedule := &FailureSchedule{}
	if config.Probability == 0 {
		return schedule, nil
	}

	for day := 1; day <= timeutils.MaxDayOfYear; day++ {
		r := rand.New(rand.NewPCG(config.RandomSeed, failureStream+uint64(day)))
		if r.Float64() >= config.Probability {
			continue
		}
		duration := config.MeanDurationHours + r.NormFloat64()*config.MeanDurationHours*0.5
		schedule.outageHours[day] = math.Max(minimumOutageHours, duration)
		schedule.longestOutage = math.Max(schedule.longestOutage, schedule.outageHours[day])
	}
	return schedule, nil
}

// IsDown returns true if the inverter is in an outage at the given tick.
func (f *FailureSchedule) IsDown(tick timeutils.Tick) bool {
	if f == nil {
		return false
	}
	tick = tick.Normalized()

	// Look back over earlier days for outages long enough to still be running
	for back := 0; 24*float64(back) < f.longestOutage; back++ {
		day := tick.DayOfYear - back
		if day < 1 {
			day += timeutils.DaysPerYear
		}
		if f.outageHours[day] > tick.Hour+24*float64(back) {
			return true
		}
	}
	return false
}

// OutageHours returns the length of the outage starting at midnight on the given day, or 0 if there is none.
func (f *FailureSchedule) OutageHours(dayOfYear int) float64 {
	if f == nil {
		return 0
	}
	return f.outageHours[timeutils.Tick{DayOfYear: dayOfYear}.Normalized().DayOfYear]
}
