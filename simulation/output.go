package simulation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cepro/solarsim/config"
	"github.com/cepro/solarsim/eventlog"
	"github.com/cepro/solarsim/report"
	"github.com/cepro/solarsim/telemetry"
)

const (
	SummaryXLSXFilename = "summary.xlsx"
	SummaryPDFFilename  = "summary.pdf"
)

// Output collects every step of a run into the CSV logs, the run summary and the readings of the plotted day.
type Output struct {
	log         *eventlog.Log
	accumulator *report.Accumulator

	start         time.Time
	plotDay       int
	plotReadings  []telemetry.PlantReading
	clippingLimit float64
}

// NewOutput returns an output for a run starting at `start`. Grid energy is priced with the configured tariffs.
func NewOutput(c config.Config, start time.Time) *Output {
	return &Output{
		log:           eventlog.New(),
		accumulator:   report.NewAccumulator(c.Grid.ImportTariff, c.Grid.ExportTariff),
		start:         start,
		plotDay:       c.Output.PlotDay,
		clippingLimit: c.Inverter.ClippingLimit,
	}
}

func (o *Output) Record(step int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
	var event *telemetry.CurtailmentEvent
	if record != nil {
		event = &record.CurtailmentEvent
	}
	o.log.Add(step, reading, event)
	o.accumulator.Add(reading, event)

	if o.plotDay > 0 && dayNumber(o.start, reading.Time) == o.plotDay {
		o.plotReadings = append(o.plotReadings, reading)
	}
}

// dayNumber returns the 1-based day of the run that `t` falls in.
func dayNumber(start, t time.Time) int {
	return int(t.Sub(start)/(24*time.Hour)) + 1
}

// Summary returns the totals of the run so far.
func (o *Output) Summary() report.Summary {
	return o.accumulator.Summary()
}

// EventCount returns the number of curtailment events so far.
func (o *Output) EventCount() int {
	return o.log.EventCount()
}

// PlotFilename is the name of the PNG written for the given day of the run.
func PlotFilename(day int) string {
	return fmt.Sprintf("day_%d.png", day)
}

// Write writes the CSV logs, the summary workbook and document, and the day plot if one was requested, into `dir`.
func (o *Output) Write(dir string) error {
	err := o.log.WriteFiles(dir)
	if err != nil {
		return fmt.Errorf("write logs: %w", err)
	}

	err = report.WriteFiles(
		o.accumulator.Summary(),
		o.accumulator.Days(),
		filepath.Join(dir, SummaryXLSXFilename),
		filepath.Join(dir, SummaryPDFFilename),
	)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if o.plotDay == 0 || len(o.plotReadings) == 0 {
		return nil
	}
	p, err := report.DayPlot(o.plotReadings, o.clippingLimit)
	if err != nil {
		return fmt.Errorf("plot day %d: %w", o.plotDay, err)
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return report.SavePNG(p, filepath.Join(dir, PlotFilename(o.plotDay)))
}
