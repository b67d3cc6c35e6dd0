package report

import (
	"log/slog"
	"time"

	"github.com/cepro/solarsim/telemetry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RateSource gives a p/kWh rate at a point in time, e.g. a config.Tariff.
type RateSource interface {
	RateAt(t time.Time) float64
}

// Summary holds the totals of a run. Energies are in kWh, money in pence.
type Summary struct {
	Steps             int
	InverterDownSteps int

	EnergyGenerated  float64
	EnergyLoad       float64
	EnergyCurtailed  float64
	EnergySpilled    float64
	BatteryCharged   float64
	BatteryDischarge float64
	GridImport       float64
	GridExport       float64

	CurtailmentEvents    int
	PeakCurtailment      float64 // kW, the largest AmountCurtailed of any event
	MeanCurtailment      float64 // kW, the mean AmountCurtailed over the events
	SelfConsumption      float64 // share of the generated energy used on site, in [0,1]
	ImportCost           float64
	ExportIncome         float64
	NetCost              float64
	FinalBatterySoe      float64
	DaysWithCurtailment  int
	MaxDailyCurtailedKWh float64
}

// Accumulator collects readings and events into a Summary.
type Accumulator struct {
	importRates RateSource
	exportRates RateSource

	steps          int
	downSteps      int
	generated      []float64
	load           []float64
	curtailed      []float64
	spilled        []float64
	charged        []float64
	discharged     []float64
	imported       []float64
	exported       []float64
	importCost     []float64
	exportIncome   []float64
	curtailments   []float64
	dailyCurtailed map[int]float64
	days           []DayTotals
	lastSoe        float64
}

// DayTotals holds the energy totals (kWh) of one simulated day.
type DayTotals struct {
	Date              string // YYYY-MM-DD in the simulation location
	EnergyGenerated   float64
	EnergyLoad        float64
	EnergyCurtailed   float64
	GridImport        float64
	GridExport        float64
	CurtailmentEvents int
}

// NewAccumulator returns an accumulator that prices grid energy with the given rates, either of which may be nil.
func NewAccumulator(importRates, exportRates RateSource) *Accumulator {
	return &Accumulator{
		importRates:    importRates,
		exportRates:    exportRates,
		dailyCurtailed: make(map[int]float64),
	}
}

// Add includes the reading, and the event if there was one, in the summary.
func (a *Accumulator) Add(reading telemetry.PlantReading, event *telemetry.CurtailmentEvent) {
	a.steps++
	if !reading.InverterOK {
		a.downSteps++
	}
	a.generated = append(a.generated, reading.EnergyGenerated)
	a.load = append(a.load, reading.EnergyLoad)
	a.curtailed = append(a.curtailed, reading.EnergyCurtailed)
	a.spilled = append(a.spilled, reading.EnergySpilled)
	a.charged = append(a.charged, reading.BatteryCharged)
	a.discharged = append(a.discharged, reading.BatteryDischarge)
	a.imported = append(a.imported, reading.GridImport)
	a.exported = append(a.exported, reading.GridExport)
	a.lastSoe = reading.BatterySoe

	if a.importRates != nil {
		a.importCost = append(a.importCost, reading.GridImport*a.importRates.RateAt(reading.Time))
	}
	if a.exportRates != nil {
		a.exportIncome = append(a.exportIncome, reading.GridExport*a.exportRates.RateAt(reading.Time))
	}

	date := reading.Time.Format(time.DateOnly)
	if len(a.days) == 0 || a.days[len(a.days)-1].Date != date {
		a.days = append(a.days, DayTotals{Date: date})
	}
	day := &a.days[len(a.days)-1]
	day.EnergyGenerated += reading.EnergyGenerated
	day.EnergyLoad += reading.EnergyLoad
	day.EnergyCurtailed += reading.EnergyCurtailed
	day.GridImport += reading.GridImport
	day.GridExport += reading.GridExport

	if event != nil {
		day.CurtailmentEvents++
		a.curtailments = append(a.curtailments, event.AmountCurtailed)
		a.dailyCurtailed[reading.Tick.DayOfYear] += reading.EnergyCurtailed
	}
}

// Summary returns the totals of everything added so far.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Steps:               a.steps,
		InverterDownSteps:   a.downSteps,
		EnergyGenerated:     floats.Sum(a.generated),
		EnergyLoad:          floats.Sum(a.load),
		EnergyCurtailed:     floats.Sum(a.curtailed),
		EnergySpilled:       floats.Sum(a.spilled),
		BatteryCharged:      floats.Sum(a.charged),
		BatteryDischarge:    floats.Sum(a.discharged),
		GridImport:          floats.Sum(a.imported),
		GridExport:          floats.Sum(a.exported),
		CurtailmentEvents:   len(a.curtailments),
		ImportCost:          floats.Sum(a.importCost),
		ExportIncome:        floats.Sum(a.exportIncome),
		FinalBatterySoe:     a.lastSoe,
		DaysWithCurtailment: len(a.dailyCurtailed),
	}
	s.NetCost = s.ImportCost - s.ExportIncome

	if len(a.curtailments) > 0 {
		s.PeakCurtailment = floats.Max(a.curtailments)
		s.MeanCurtailment = stat.Mean(a.curtailments, nil)
	}
	for _, kwh := range a.dailyCurtailed {
		if kwh > s.MaxDailyCurtailedKWh {
			s.MaxDailyCurtailedKWh = kwh
		}
	}
	if s.EnergyGenerated > 0 {
		s.SelfConsumption = (s.EnergyGenerated - s.GridExport - s.EnergySpilled) / s.EnergyGenerated
	}

	return s
}

// Days returns the per-day totals in the order the days were simulated.
func (a *Accumulator) Days() []DayTotals {
	days := make([]DayTotals, len(a.days))
	copy(days, a.days)
	return days
}

// Log writes the summary to the given logger at info level.
func (s Summary) Log(logger *slog.Logger) {
	logger.Info(
		"Simulation summary",
		"steps", s.Steps,
		"inverter_down_steps", s.InverterDownSteps,
		"energy_generated_kwh", s.EnergyGenerated,
		"energy_load_kwh", s.EnergyLoad,
		"energy_curtailed_kwh", s.EnergyCurtailed,
		"energy_spilled_kwh", s.EnergySpilled,
		"grid_import_kwh", s.GridImport,
		"grid_export_kwh", s.GridExport,
		"curtailment_events", s.CurtailmentEvents,
		"peak_curtailment_kw", s.PeakCurtailment,
		"days_with_curtailment", s.DaysWithCurtailment,
		"self_consumption", s.SelfConsumption,
		"net_cost_pence", s.NetCost,
		"final_battery_soe_kwh", s.FinalBatterySoe,
	)
}
