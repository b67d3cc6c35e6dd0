package battery

import (
	"math"

	"github.com/cepro/solarsim/simerrors"
)

const component = "battery"

// Config holds the user-configurable parameters of the battery.
type Config struct {
	CapacityKWh        float64 // usable capacity
	MinSoeFraction     float64 // the battery is never discharged below this fraction of capacity
	Efficiency         float64 // applied on the way in and again on the way out, in (0,1]
	InitialSoeFraction float64 // state of energy at the start of the run, as a fraction of capacity
}

// Battery tracks the state of energy of a simple battery that accepts signed energy deltas from the plant bus.
type Battery struct {
	config Config
	soe    float64 // kWh
}

// New validates the config and returns a battery at its initial state of energy.
func New(config Config) (*Battery, error) {
	if !(config.CapacityKWh >= 0) {
		return nil, simerrors.NewConfigurationError(component, "capacityKWh", config.CapacityKWh, "must not be negative")
	}
	if !(config.MinSoeFraction >= 0 && config.MinSoeFraction <= 1) {
		return nil, simerrors.NewConfigurationError(component, "minSoeFraction", config.MinSoeFraction, "must be within [0,1]")
	}
	if !(config.Efficiency > 0 && config.Efficiency <= 1) {
		return nil, simerrors.NewConfigurationError(component, "efficiency", config.Efficiency, "must be within (0,1]")
	}
	if !(config.InitialSoeFraction >= 0 && config.InitialSoeFraction <= 1) {
		return nil, simerrors.NewConfigurationError(component, "initialSoeFraction", config.InitialSoeFraction, "must be within [0,1]")
	}

	return &Battery{
		config: config,
		soe:    config.CapacityKWh * config.InitialSoeFraction,
	}, nil
}

// Apply offers a signed energy delta from the bus to the battery: positive to charge, negative to discharge.
// It returns the energy actually exchanged with the bus, with the same sign convention, which is limited by the
// remaining headroom (charging) or the energy above the minimum state of energy (discharging).
func (b *Battery) Apply(deltaKWh float64) float64 {
	switch {
	case deltaKWh > 0:
		return b.charge(deltaKWh)
	case deltaKWh < 0:
		return -b.discharge(-deltaKWh)
	default:
		return 0
	}
}

// charge stores up to `offered` kWh from the bus, losing a share of it to the efficiency.
func (b *Battery) charge(offered float64) float64 {
	headroom := b.config.CapacityKWh - b.soe
	if headroom <= 0 {
		return 0
	}
	accepted := math.Min(offered, headroom/b.config.Efficiency)
	b.soe = math.Min(b.config.CapacityKWh, b.soe+accepted*b.config.Efficiency)
	return accepted
}

// discharge delivers up to `need` kWh to the bus, withdrawing more than that from storage to cover the efficiency.
func (b *Battery) discharge(need float64) float64 {
	available := math.Max(0, b.soe-b.minSoe())
	withdrawn := math.Min(need/b.config.Efficiency, available)
	b.soe = math.Max(0, b.soe-withdrawn)
	return withdrawn * b.config.Efficiency
}

func (b *Battery) minSoe() float64 {
	return b.config.CapacityKWh * b.config.MinSoeFraction
}

// Soe returns the current state of energy in kWh.
func (b *Battery) Soe() float64 {
	return b.soe
}

// CapacityKWh returns the configured capacity.
func (b *Battery) CapacityKWh() float64 {
	return b.config.CapacityKWh
}
