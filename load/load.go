package load

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cepro/solarsim/simerrors"
	timeutils "github.com/cepro/solarsim/time_utils"
)

const component = "load"

// loadStream separates the load draws from the other models when they share a seed.
const loadStream = 2 << 32

// Bump adds extra demand during a recurring period, e.g. the evening peak.
type Bump struct {
	Period timeutils.DayedPeriod
	KW     float64
}

// Config holds the parameters of the demand model.
type Config struct {
	BaseKW           float64 // demand outside of any bump
	SpikeProbability float64 // chance of a random spike on each step, in [0,1]
	SpikeMaxKW       float64 // spikes are uniformly distributed in [0, SpikeMaxKW)
	NoiseMinKW       float64 // per-step noise is uniformly distributed in [NoiseMinKW, NoiseMaxKW)
	NoiseMaxKW       float64
	Bumps            []Bump
	RandomSeed       uint64
}

// DefaultConfig returns a household-like demand profile with a morning bump and an evening peak.
func DefaultConfig(location *time.Location, seed uint64) Config {
	return Config{
		BaseKW:           0.9,
		SpikeProbability: 0.05,
		SpikeMaxKW:       3.5,
		NoiseMinKW:       -0.1,
		NoiseMaxKW:       0.2,
		Bumps: []Bump{
			{Period: dailyPeriod(7, 9, location), KW: 0.6},
			{Period: dailyPeriod(18, 21, location), KW: 0.8},
		},
		RandomSeed: seed,
	}
}

func dailyPeriod(startHour, endHour int, location *time.Location) timeutils.DayedPeriod {
	return timeutils.DayedPeriod{
		ClockTimePeriod: timeutils.ClockTimePeriod{
			Start: timeutils.ClockTime{Hour: startHour, Location: location},
			End:   timeutils.ClockTime{Hour: endHour, Location: location},
		},
		Days: timeutils.AllDays,
	}
}

// Model produces consumer demand for each simulated step. It owns its random generator, so draws depend only on the
// seed and the number of steps taken.
type Model struct {
	config Config
	rand   *rand.Rand
}

// New validates the config and returns a Model.
func New(config Config) (*Model, error) {
	if !(config.BaseKW >= 0) {
		return nil, simerrors.NewConfigurationError(component, "baseKW", config.BaseKW, "must not be negative")
	}
	if !(config.SpikeProbability >= 0 && config.SpikeProbability <= 1) {
		return nil, simerrors.NewConfigurationError(component, "spikeProbability", config.SpikeProbability, "must be within [0,1]")
	}
	if config.NoiseMaxKW < config.NoiseMinKW {
		return nil, simerrors.NewConfigurationError(component, "noiseMaxKW", config.NoiseMaxKW, "must not be less than noiseMinKW")
	}
	for _, bump := range config.Bumps {
		if !timeutils.ValidDays(bump.Period.Days) {
			return nil, simerrors.NewConfigurationError(component, "bumps.days", math.NaN(), "must be 'all', 'weekdays' or 'weekends'")
		}
		if bump.Period.Start.Location == nil || bump.Period.End.Location == nil {
			return nil, simerrors.NewConfigurationError(component, "bumps.location", math.NaN(), "must be set")
		}
	}

	return &Model{
		config: config,
		rand:   rand.New(rand.NewPCG(config.RandomSeed, loadStream)),
	}, nil
}

// Demand returns the consumer demand in kW at the given time, which is always >= 0.
func (m *Model) Demand(t time.Time) float64 {
	demand := m.config.BaseKW
	for i := range m.config.Bumps {
		if m.config.Bumps[i].Period.Contains(t) {
			demand += m.config.Bumps[i].KW
		}
	}

	if m.rand.Float64() < m.config.SpikeProbability {
		demand += m.rand.Float64() * m.config.SpikeMaxKW
	}
	demand += m.config.NoiseMinKW + m.rand.Float64()*(m.config.NoiseMaxKW-m.config.NoiseMinKW)

	return math.Max(0, demand)
}
