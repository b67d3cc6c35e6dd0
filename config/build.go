package config

import (
	"time"

	"github.com/cepro/solarsim/battery"
	"github.com/cepro/solarsim/cartesian"
	"github.com/cepro/solarsim/inverter"
	"github.com/cepro/solarsim/load"
	"github.com/cepro/solarsim/solar"
)

// SolarProfileConfig returns the config for the solar profile, seeded with `seed`.
func (c Config) SolarProfileConfig(seed uint64) (solar.Config, error) {
	profileConfig := solar.Config{
		PeakPower:           c.Solar.PeakPower,
		SunriseHour:         c.Solar.SunriseHour,
		SunsetHour:          c.Solar.SunsetHour,
		SeasonalAmplitude:   c.Solar.SeasonalAmplitude,
		DailyNoiseAmplitude: c.Solar.DailyNoiseAmplitude,
		RandomSeed:          &seed,
		SouthernHemisphere:  c.Solar.SouthernHemisphere,
		CloudModel:          solar.CloudModel(c.Solar.CloudModel),
	}

	if len(c.Solar.SeasonalCurve) > 0 {
		curve, err := solar.NewPiecewiseSeasonalCurve(cartesian.Curve{Points: c.Solar.SeasonalCurve})
		if err != nil {
			return solar.Config{}, err
		}
		profileConfig.SeasonalCurve = curve
	}

	return profileConfig, nil
}

// FailureConfig returns the config for the inverter failure schedule, seeded with `seed`.
func (c Config) FailureConfig(seed uint64) inverter.FailureConfig {
	return inverter.FailureConfig{
		Probability:       c.Inverter.Failure.Probability,
		MeanDurationHours: c.Inverter.Failure.MeanDurationHours,
		RandomSeed:        seed,
	}
}

// BatteryConfig returns the config for the battery.
func (c Config) BatteryConfig() battery.Config {
	return battery.Config(c.Battery)
}

// LoadModelConfig returns the config for the load model, seeded with `seed`. The default morning and evening bumps are
// used if none are configured.
func (c Config) LoadModelConfig(loc *time.Location, seed uint64) load.Config {
	modelConfig := load.DefaultConfig(loc, seed)
	modelConfig.BaseKW = c.Load.BaseKW
	modelConfig.SpikeProbability = c.Load.SpikeProbability
	modelConfig.SpikeMaxKW = c.Load.SpikeMaxKW
	modelConfig.NoiseMinKW = c.Load.NoiseMinKW
	modelConfig.NoiseMaxKW = c.Load.NoiseMaxKW

	if len(c.Load.Bumps) > 0 {
		modelConfig.Bumps = make([]load.Bump, 0, len(c.Load.Bumps))
		for _, bump := range c.Load.Bumps {
			period := bump.Period
			period.ClockTimePeriod = period.ClockTimePeriod.InLocation(loc)
			modelConfig.Bumps = append(modelConfig.Bumps, load.Bump{Period: period, KW: bump.KW})
		}
	}

	return modelConfig
}
