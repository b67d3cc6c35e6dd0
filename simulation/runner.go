package simulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cepro/solarsim/plant"
	"github.com/cepro/solarsim/telemetry"
)

// Runner drives a plant over the simulated period and fans each step out to the sinks.
type Runner struct {
	plant *plant.Plant
	sinks []Sink

	start    time.Time
	timestep time.Duration
	steps    int

	logger *slog.Logger
}

// NewRunner returns a runner that simulates `days` days from `start` in steps of `timestep`.
func NewRunner(p *plant.Plant, start time.Time, days int, timestep time.Duration, sinks ...Sink) (*Runner, error) {
	if days < 1 {
		return nil, errors.New("must simulate at least one day")
	}
	if timestep <= 0 {
		return nil, errors.New("timestep must be positive")
	}
	return &Runner{
		plant:    p,
		sinks:    sinks,
		start:    start,
		timestep: timestep,
		steps:    int(time.Duration(days) * 24 * time.Hour / timestep),
		logger:   slog.Default().With("component", "runner"),
	}, nil
}

// Steps returns the number of steps in a full run.
func (r *Runner) Steps() int {
	return r.steps
}

func (r *Runner) timeOf(step int) time.Time {
	return r.start.Add(time.Duration(step) * r.timestep)
}

func (r *Runner) record(step int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
	for _, sink := range r.sinks {
		sink.Record(step, reading, record)
	}
}

// RunBatch steps the plant as fast as possible. It returns the number of steps completed, and the context's error if
// it was cancelled before the end of the run.
func (r *Runner) RunBatch(ctx context.Context) (int, error) {
	r.logger.Info("Starting batch run", "start", r.start, "steps", r.steps, "timestep", r.timestep)

	for step := 0; step < r.steps; step++ {
		if err := ctx.Err(); err != nil {
			return step, err
		}

		t := r.timeOf(step)
		result := r.plant.Step(t, r.timestep)

		var record *telemetry.CurtailmentRecord
		if result.Event != nil {
			stamped := telemetry.NewCurtailmentRecord(t, *result.Event)
			record = &stamped
		}
		r.record(step, result.Reading, record)
	}
	return r.steps, nil
}

// RunRealtime feeds one simulated time to the plant per `interval` of wall-clock time and consumes its readings and
// events as they are produced.
func (r *Runner) RunRealtime(ctx context.Context, interval time.Duration) (int, error) {
	if interval <= 0 {
		return 0, errors.New("realtime interval must be positive")
	}
	r.logger.Info("Starting realtime run", "start", r.start, "steps", r.steps, "interval", interval)

	ticks := make(chan time.Time)
	go func() {
		defer close(ticks)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for step := 0; step < r.steps; step++ {
			if step > 0 {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
			select {
			case <-ctx.Done():
				return
			case ticks <- r.timeOf(step):
			}
		}
	}()

	plantDone := make(chan struct{})
	go func() {
		r.plant.Run(ctx, ticks, r.timestep)
		close(plantDone)
	}()

	// The plant sends each reading before its event, so a reading is held until the next reading shows it had none.
	step := 0
	var pending *telemetry.PlantReading
	flush := func(record *telemetry.CurtailmentRecord) {
		if pending == nil {
			return
		}
		r.record(step, *pending, record)
		step++
		pending = nil
	}

	for {
		select {
		case reading := <-r.plant.Readings:
			flush(nil)
			pending = &reading
		case record := <-r.plant.Events:
			if pending == nil {
				r.logger.Warn("Dropping curtailment event without a reading", "time", record.Time)
				continue
			}
			flush(&record)
		case <-plantDone:
			flush(nil)
			if step < r.steps {
				return step, ctx.Err()
			}
			return step, nil
		}
	}
}
