package simulation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cepro/solarsim/battery"
	"github.com/cepro/solarsim/config"
	"github.com/cepro/solarsim/inverter"
	"github.com/cepro/solarsim/load"
	"github.com/cepro/solarsim/plant"
	"github.com/cepro/solarsim/solar"
)

// Components are the models that make up a simulated plant.
type Components struct {
	Seed     uint64
	Solar    *solar.Profile
	Inverter *inverter.Stage
	Failures *inverter.FailureSchedule
	Load     *load.Model
	Battery  *battery.Battery
	Plant    *plant.Plant
}

// ResolveSeed returns the configured random seed, or a fresh one if none is configured. Every model is seeded from the
// one value so that a run can be replayed by configuring the seed it reports.
func ResolveSeed(c config.Config) uint64 {
	if c.Simulation.RandomSeed != nil {
		return *c.Simulation.RandomSeed
	}
	return rand.Uint64()
}

// Build constructs every model of the plant described by the config.
func Build(c config.Config, loc *time.Location, seed uint64) (*Components, error) {
	profileConfig, err := c.SolarProfileConfig(seed)
	if err != nil {
		return nil, fmt.Errorf("solar profile config: %w", err)
	}
	profile, err := solar.New(profileConfig)
	if err != nil {
		return nil, fmt.Errorf("create solar profile: %w", err)
	}

	stage, err := inverter.New(c.Inverter.ClippingLimit)
	if err != nil {
		return nil, fmt.Errorf("create inverter: %w", err)
	}

	failures, err := inverter.NewFailureSchedule(c.FailureConfig(seed))
	if err != nil {
		return nil, fmt.Errorf("create failure schedule: %w", err)
	}

	loadModel, err := load.New(c.LoadModelConfig(loc, seed))
	if err != nil {
		return nil, fmt.Errorf("create load model: %w", err)
	}

	bat, err := battery.New(c.BatteryConfig())
	if err != nil {
		return nil, fmt.Errorf("create battery: %w", err)
	}

	p, err := plant.New(plant.Config{
		Solar:         profile,
		Inverter:      stage,
		Outages:       failures,
		Load:          loadModel,
		Battery:       bat,
		CanExport:     c.Grid.CanExport,
		ExportLimitKW: c.Grid.ExportLimitKW,
	})
	if err != nil {
		return nil, fmt.Errorf("create plant: %w", err)
	}

	return &Components{
		Seed:     seed,
		Solar:    profile,
		Inverter: stage,
		Failures: failures,
		Load:     loadModel,
		Battery:  bat,
		Plant:    p,
	}, nil
}
