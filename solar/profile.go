package solar

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cepro/solarsim/simerrors"
	timeutils "github.com/cepro/solarsim/time_utils"
)

const component = "solar"

// Config holds the static parameters of a SolarProfile.
type Config struct {
	PeakPower           float64 // output at solar noon on a clear day with no seasonal attenuation, kW
	SunriseHour         float64 // start of the daylight window, hours since midnight
	SunsetHour          float64 // end of the daylight window, hours since midnight
	SeasonalAmplitude   float64 // in [0,1], how strongly the seasonal curve attenuates output
	DailyNoiseAmplitude float64 // in [0,1], how strongly the daily cloud draw attenuates output
	RandomSeed          *uint64 // seeds the daily cloud draws, a time based seed is used if nil

	SouthernHemisphere bool          // moves the default seasonal curve and seasons by half a year
	SeasonalCurve      SeasonalCurve // defaults to the cosine curve for the hemisphere
	CloudModel         CloudModel    // defaults to CloudModelUniform
}

// DefaultConfig returns a Config with a 06:00 to 18:00 daylight window and no attenuation.
func DefaultConfig(peakPower float64) Config {
	return Config{
		PeakPower:   peakPower,
		SunriseHour: 6,
		SunsetHour:  18,
		CloudModel:  CloudModelUniform,
	}
}

// Profile maps simulated ticks to the raw DC output of a solar array, before any inverter limits.
//
// The output is a sinusoidal daylight curve attenuated by a seasonal cloud baseline and a daily cloud draw.
// The daily draws are generated eagerly for every day of the year when the Profile is created, so a
// Profile is immutable and safe for concurrent use.
type Profile struct {
	config     Config
	seed       uint64
	dayFactors [timeutils.MaxDayOfYear + 1]float64 // combined seasonal and daily factor, indexed by day of year
	cloudDraws [timeutils.MaxDayOfYear + 1]float64 // U for each day of year
}

// New validates the config and returns a Profile, or a ConfigurationError.
func New(config Config) (*Profile, error) {
	if err := validate(config); err != nil {
		return nil, err
	}

	if config.SeasonalCurve == nil {
		config.SeasonalCurve = DefaultSeasonalCurve(config.SouthernHemisphere)
	}
	if config.CloudModel == "" {
		config.CloudModel = CloudModelUniform
	}

	var seed uint64
	if config.RandomSeed != nil {
		seed = *config.RandomSeed
	} else {
		seed = uint64(time.Now().UnixNano())
		slog.Warn("No solar random seed configured, the run will not be reproducible", "seed", seed)
	}

	p := &Profile{
		config: config,
		seed:   seed,
	}
	for day := 1; day <= timeutils.MaxDayOfYear; day++ {
		// Each day gets its own stream so that a day's draw does not depend on which other days were simulated
		r := rand.New(rand.NewPCG(seed, uint64(day)))
		u := drawCloudCover(r, config.CloudModel, SeasonForDay(day, config.SouthernHemisphere))
		p.cloudDraws[day] = u
		p.dayFactors[day] = p.seasonalFactor(day) * (1 - config.DailyNoiseAmplitude*u)
	}

	return p, nil
}

func validate(config Config) error {
	if !(config.PeakPower > 0) {
		return simerrors.NewConfigurationError(component, "peakPower", config.PeakPower, "must be greater than zero")
	}
	if config.SunriseHour < 0 || config.SunriseHour >= 24 {
		return simerrors.NewConfigurationError(component, "sunriseHour", config.SunriseHour, "must be within [0,24)")
	}
	if config.SunsetHour > 24 {
		return simerrors.NewConfigurationError(component, "sunsetHour", config.SunsetHour, "must be at most 24")
	}
	if !(config.SunsetHour > config.SunriseHour) {
		return simerrors.NewConfigurationError(component, "sunsetHour", config.SunsetHour, "must be after sunriseHour")
	}
	if !(config.SeasonalAmplitude >= 0 && config.SeasonalAmplitude <= 1) {
		return simerrors.NewConfigurationError(component, "seasonalAmplitude", config.SeasonalAmplitude, "must be within [0,1]")
	}
	if !(config.DailyNoiseAmplitude >= 0 && config.DailyNoiseAmplitude <= 1) {
		return simerrors.NewConfigurationError(component, "dailyNoiseAmplitude", config.DailyNoiseAmplitude, "must be within [0,1]")
	}
	switch config.CloudModel {
	case "", CloudModelUniform, CloudModelWeighted:
	default:
		return simerrors.NewConfigurationError(component, "cloudModel", math.NaN(), "must be 'uniform' or 'weighted'")
	}
	return nil
}

// RawPower returns the DC output of the array at the given tick, which is always >= 0.
func (p *Profile) RawPower(tick timeutils.Tick) float64 {
	tick = tick.Normalized()

	base := p.BaseCurve(tick.Hour)
	if base == 0 {
		return 0
	}

	raw := p.config.PeakPower * base * p.dayFactors[tick.DayOfYear]
	return math.Max(0, raw)
}

// BaseCurve returns the clear-sky shape of the day at the given hour: 0 at sunrise, 1 at solar noon, and 0 from sunset
// until the next sunrise.
func (p *Profile) BaseCurve(hour float64) float64 {
	if hour < p.config.SunriseHour || hour >= p.config.SunsetHour {
		return 0
	}
	daylightFraction := (hour - p.config.SunriseHour) / (p.config.SunsetHour - p.config.SunriseHour)
	return math.Max(0, math.Sin(math.Pi*daylightFraction))
}

// DayFactor returns the product of the seasonal and daily cloud factors for the given day, i.e. the ratio of RawPower
// to PeakPower * BaseCurve for every tick of that day.
func (p *Profile) DayFactor(dayOfYear int) float64 {
	return p.dayFactors[timeutils.Tick{DayOfYear: dayOfYear}.Normalized().DayOfYear]
}

// SeasonalFactor returns 1 - SeasonalAmplitude * SeasonalCurve(day).
func (p *Profile) SeasonalFactor(dayOfYear int) float64 {
	return p.seasonalFactor(timeutils.Tick{DayOfYear: dayOfYear}.Normalized().DayOfYear)
}

func (p *Profile) seasonalFactor(dayOfYear int) float64 {
	curve := math.Min(1, math.Max(0, p.config.SeasonalCurve.At(dayOfYear)))
	return 1 - p.config.SeasonalAmplitude*curve
}

// DailyCloudFactor returns 1 - DailyNoiseAmplitude * U for the given day, where U is that day's cloud draw.
func (p *Profile) DailyCloudFactor(dayOfYear int) float64 {
	day := timeutils.Tick{DayOfYear: dayOfYear}.Normalized().DayOfYear
	return 1 - p.config.DailyNoiseAmplitude*p.cloudDraws[day]
}

// Seed returns the seed used for the daily cloud draws, so that a run without a configured seed can be replayed.
func (p *Profile) Seed() uint64 {
	return p.seed
}

// PeakPower returns the configured peak power.
func (p *Profile) PeakPower() float64 {
	return p.config.PeakPower
}
