package eventlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cepro/solarsim/telemetry"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	EventsFilename = "events.csv"
	LogFilename    = "log.csv"
)

// eventRow is one line of events.csv.
type eventRow struct {
	Tick            int     `dataframe:"tick"`
	DayOfYear       int     `dataframe:"day_of_year"`
	Hour            float64 `dataframe:"hour"`
	RawPower        float64 `dataframe:"raw_power"`
	ClippedPower    float64 `dataframe:"clipped_power"`
	AmountCurtailed float64 `dataframe:"amount_curtailed"`
}

// readingRow is one line of log.csv.
type readingRow struct {
	Time                 string  `dataframe:"time"`
	Tick                 int     `dataframe:"tick"`
	DayOfYear            int     `dataframe:"day_of_year"`
	Hour                 float64 `dataframe:"hour"`
	SolarRawKW           float64 `dataframe:"solar_raw_kw"`
	SolarKW              float64 `dataframe:"solar_kw"`
	LoadKW               float64 `dataframe:"load_kw"`
	EnergyGenKWh         float64 `dataframe:"energy_gen_kwh"`
	EnergyLoadKWh        float64 `dataframe:"energy_load_kwh"`
	EnergyCurtailedKWh   float64 `dataframe:"energy_curtailed_kwh"`
	EnergySpilledKWh     float64 `dataframe:"energy_spilled_kwh"`
	BatterySoeKWh        float64 `dataframe:"battery_soe_kwh"`
	BatteryChargedKWh    float64 `dataframe:"battery_charged_kwh"`
	BatteryDischargedKWh float64 `dataframe:"battery_discharged_kwh"`
	GridImportKWh        float64 `dataframe:"grid_import_kwh"`
	GridExportKWh        float64 `dataframe:"grid_export_kwh"`
	InverterOK           bool    `dataframe:"inverter_ok"`
	Cloud                float64 `dataframe:"cloud"`
}

// Log collects the curtailment events and plant readings of a run and writes them out as CSV.
// Ticks are numbered from zero in the order they are added.
type Log struct {
	events   []eventRow
	readings []readingRow
}

func New() *Log {
	return &Log{}
}

// Add appends the reading of tick number `tick`, and the event if the inverter clipped on that tick.
func (l *Log) Add(tick int, reading telemetry.PlantReading, event *telemetry.CurtailmentEvent) {
	l.readings = append(l.readings, readingRow{
		Time:                 reading.Time.Format(time.RFC3339),
		Tick:                 tick,
		DayOfYear:            reading.Tick.DayOfYear,
		Hour:                 reading.Tick.Hour,
		SolarRawKW:           reading.SolarRawPower,
		SolarKW:              reading.SolarPower,
		LoadKW:               reading.LoadPower,
		EnergyGenKWh:         reading.EnergyGenerated,
		EnergyLoadKWh:        reading.EnergyLoad,
		EnergyCurtailedKWh:   reading.EnergyCurtailed,
		EnergySpilledKWh:     reading.EnergySpilled,
		BatterySoeKWh:        reading.BatterySoe,
		BatteryChargedKWh:    reading.BatteryCharged,
		BatteryDischargedKWh: reading.BatteryDischarge,
		GridImportKWh:        reading.GridImport,
		GridExportKWh:        reading.GridExport,
		InverterOK:           reading.InverterOK,
		Cloud:                reading.CloudFactor,
	})

	if event == nil {
		return
	}
	l.events = append(l.events, eventRow{
		Tick:            tick,
		DayOfYear:       event.Tick.DayOfYear,
		Hour:            event.Tick.Hour,
		RawPower:        event.RawPower,
		ClippedPower:    event.ClippedPower,
		AmountCurtailed: event.AmountCurtailed,
	})
}

// EventCount returns the number of curtailment events added so far.
func (l *Log) EventCount() int {
	return len(l.events)
}

// WriteEvents writes the curtailment events as CSV, with a header row even if there were no events.
func (l *Log) WriteEvents(w io.Writer) error {
	var df dataframe.DataFrame
	if len(l.events) == 0 {
		df = dataframe.New(
			series.New([]int{}, series.Int, "tick"),
			series.New([]int{}, series.Int, "day_of_year"),
			series.New([]float64{}, series.Float, "hour"),
			series.New([]float64{}, series.Float, "raw_power"),
			series.New([]float64{}, series.Float, "clipped_power"),
			series.New([]float64{}, series.Float, "amount_curtailed"),
		)
	} else {
		df = dataframe.LoadStructs(l.events)
	}
	if df.Err != nil {
		return fmt.Errorf("build events dataframe: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// WriteReadings writes the plant readings as CSV.
func (l *Log) WriteReadings(w io.Writer) error {
	if len(l.readings) == 0 {
		return fmt.Errorf("no readings to write")
	}
	df := dataframe.LoadStructs(l.readings)
	if df.Err != nil {
		return fmt.Errorf("build readings dataframe: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// WriteFiles writes events.csv and log.csv into `dir`, creating it if necessary.
func (l *Log) WriteFiles(dir string) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	err = writeFile(filepath.Join(dir, EventsFilename), l.WriteEvents)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, LogFilename), l.WriteReadings)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = write(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
