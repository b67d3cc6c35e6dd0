package plant

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cepro/solarsim/telemetry"
	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/google/uuid"
)

// energyEpsilon is the smallest energy (kWh) that is treated as a grid import rather than rounding noise.
const energyEpsilon = 1e-9

// SolarModel produces the raw DC output of the array, e.g. a *solar.Profile.
type SolarModel interface {
	RawPower(tick timeutils.Tick) float64
	DayFactor(dayOfYear int) float64
}

// InverterModel clips the DC output to the AC limit, e.g. an *inverter.Stage.
type InverterModel interface {
	Apply(rawPower float64, tick timeutils.Tick) (float64, *telemetry.CurtailmentEvent)
}

// OutageSchedule reports inverter outages, e.g. an *inverter.FailureSchedule.
type OutageSchedule interface {
	IsDown(tick timeutils.Tick) bool
}

// DemandModel produces consumer demand in kW, e.g. a *load.Model.
type DemandModel interface {
	Demand(t time.Time) float64
}

// Storage accepts signed energy deltas from the bus, e.g. a *battery.Battery.
type Storage interface {
	Apply(deltaKWh float64) float64
	Soe() float64
}

type Config struct {
	Solar    SolarModel
	Inverter InverterModel
	Outages  OutageSchedule // optional, the inverter never fails if nil
	Load     DemandModel
	Battery  Storage

	CanExport     bool    // whether surplus energy may be exported to the grid
	ExportLimitKW float64 // maximum export power when CanExport is true
}

// StepResult is the outcome of one simulated step.
type StepResult struct {
	Reading telemetry.PlantReading
	Event   *telemetry.CurtailmentEvent // nil when the inverter did not clip
}

// Plant balances the solar output, consumer demand, battery and grid for each simulated step.
//
// Feed simulated times onto the channel given to `Run` and the plant readings and curtailment events will be output
// onto the `Readings` and `Events` channels. Alternatively call `Step` directly from a synchronous driver.
// A Plant is not safe for concurrent use: the battery and load model carry state from one step to the next.
type Plant struct {
	Readings chan telemetry.PlantReading
	Events   chan telemetry.CurtailmentRecord

	config Config
	logger *slog.Logger
}

func New(config Config) (*Plant, error) {
	if config.Solar == nil || config.Inverter == nil || config.Load == nil || config.Battery == nil {
		return nil, errors.New("plant needs a solar model, inverter, load model and battery")
	}
	if config.CanExport && config.ExportLimitKW < 0 {
		return nil, errors.New("export limit must not be negative")
	}

	return &Plant{
		Readings: make(chan telemetry.PlantReading),
		Events:   make(chan telemetry.CurtailmentRecord),
		config:   config,
		logger:   slog.Default().With("component", "plant"),
	}, nil
}

// Run loops until the context is cancelled or the ticks channel is closed, running one step of length `step` for each
// simulated time received.
func (p *Plant) Run(ctx context.Context, ticks <-chan time.Time, step time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ticks:
			if !ok {
				return
			}
			result := p.Step(t, step)

			select {
			case <-ctx.Done():
				return
			case p.Readings <- result.Reading:
			}

			if result.Event == nil {
				continue
			}
			record := telemetry.NewCurtailmentRecord(t, *result.Event)
			select {
			case <-ctx.Done():
				return
			case p.Events <- record:
			}
		}
	}
}

// Step runs the energy balance for the step of length `dt` starting at `t`.
//
// Solar energy after the inverter is used to charge the battery first, then exported up to the export limit, and any
// remainder is spilled. A deficit is covered by the battery first and then imported from the grid.
func (p *Plant) Step(t time.Time, dt time.Duration) StepResult {
	tick := timeutils.TickFromTime(t)
	dtHours := dt.Hours()

	inverterOK := p.config.Outages == nil || !p.config.Outages.IsDown(tick)

	rawPower := 0.0
	solarPower := 0.0
	var event *telemetry.CurtailmentEvent
	if inverterOK {
		rawPower = p.config.Solar.RawPower(tick)
		solarPower, event = p.config.Inverter.Apply(rawPower, tick)
	}
	loadPower := p.config.Load.Demand(t)

	reading := telemetry.PlantReading{
		ReadingMeta: telemetry.ReadingMeta{
			ID:   uuid.New(),
			Time: t,
		},
		Tick:            tick,
		SolarRawPower:   rawPower,
		SolarPower:      solarPower,
		LoadPower:       loadPower,
		InverterOK:      inverterOK,
		CloudFactor:     p.config.Solar.DayFactor(tick.DayOfYear),
		EnergyGenerated: solarPower * dtHours,
		EnergyLoad:      loadPower * dtHours,
	}
	if event != nil {
		reading.EnergyCurtailed = event.AmountCurtailed * dtHours
	}

	net := reading.EnergyGenerated - reading.EnergyLoad
	switch {
	case net > 0:
		reading.BatteryCharged = p.config.Battery.Apply(net)
		leftover := net - reading.BatteryCharged
		if p.config.CanExport {
			reading.GridExport = math.Min(leftover, p.config.ExportLimitKW*dtHours)
		}
		reading.EnergySpilled = leftover - reading.GridExport

	case net < 0:
		need := -net
		reading.BatteryDischarge = -p.config.Battery.Apply(net)
		remaining := need - reading.BatteryDischarge
		if remaining > energyEpsilon {
			reading.GridImport = remaining
		}
	}
	reading.BatterySoe = p.config.Battery.Soe()

	p.logger.Debug(
		"Plant step",
		"tick", tick.String(),
		"solar_raw_power", rawPower,
		"solar_power", solarPower,
		"load_power", loadPower,
		"inverter_ok", inverterOK,
		"battery_soe", reading.BatterySoe,
		"grid_import", reading.GridImport,
		"grid_export", reading.GridExport,
	)

	return StepResult{Reading: reading, Event: event}
}
