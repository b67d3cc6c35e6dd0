package simulation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cepro/solarsim/config"
	"github.com/cepro/solarsim/eventlog"
	"github.com/cepro/solarsim/metrics"
	"github.com/cepro/solarsim/simerrors"
	"github.com/cepro/solarsim/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	n       int
	reading telemetry.PlantReading
	record  *telemetry.CurtailmentRecord
}

// collector keeps every step it is given.
type collector struct {
	steps []step
}

func (c *collector) Record(n int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
	c.steps = append(c.steps, step{n, reading, record})
}

// sunnyConfig is a summer run with an array oversized for its inverter so that clipping is frequent.
func sunnyConfig(days int, timestep time.Duration) config.Config {
	seed := uint64(7)
	c := config.Default()
	c.Solar.PeakPower = 8
	c.Solar.DailyNoiseAmplitude = 0
	c.Inverter.ClippingLimit = 4
	c.Inverter.Failure.Probability = 0
	c.Simulation.Start = time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)
	c.Simulation.Days = days
	c.Simulation.Timestep = timestep
	c.Simulation.RandomSeed = &seed
	return c
}

func newTestRunner(t *testing.T, c config.Config, sinks ...Sink) *Runner {
	t.Helper()
	components, err := Build(c, time.UTC, ResolveSeed(c))
	require.NoError(t, err)
	runner, err := NewRunner(components.Plant, c.Simulation.Start, c.Simulation.Days, c.Simulation.Timestep, sinks...)
	require.NoError(t, err)
	return runner
}

func TestResolveSeed(t *testing.T) {
	c := config.Default()
	seed := uint64(42)
	c.Simulation.RandomSeed = &seed
	assert.Equal(t, uint64(42), ResolveSeed(c))

	c.Simulation.RandomSeed = nil
	assert.NotEqual(t, ResolveSeed(c), ResolveSeed(c))
}

func TestBuild(t *testing.T) {
	components, err := Build(config.Default(), time.UTC, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), components.Seed)
	assert.Equal(t, uint64(3), components.Solar.Seed())
	assert.Equal(t, 5.0, components.Inverter.ClippingLimit())
	assert.InDelta(t, 2.5, components.Battery.Soe(), 1e-9)
	assert.NotNil(t, components.Plant)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	type subTest struct {
		name   string
		modify func(c *config.Config)
	}

	subTests := []subTest{
		{"ZeroClippingLimit", func(c *config.Config) { c.Inverter.ClippingLimit = 0 }},
		{"NegativePeakPower", func(c *config.Config) { c.Solar.PeakPower = -1 }},
		{"SunsetBeforeSunrise", func(c *config.Config) { c.Solar.SunsetHour = 5 }},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			c := config.Default()
			subTest.modify(&c)
			_, err := Build(c, time.UTC, 1)
			require.Error(t, err)
			assert.True(t, simerrors.IsConfigurationError(err))
		})
	}
}

func TestNewRunnerValidation(t *testing.T) {
	components, err := Build(config.Default(), time.UTC, 1)
	require.NoError(t, err)
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err = NewRunner(components.Plant, start, 0, time.Hour)
	assert.Error(t, err)
	_, err = NewRunner(components.Plant, start, 1, 0)
	assert.Error(t, err)

	runner, err := NewRunner(components.Plant, start, 2, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 192, runner.Steps())
}

func TestRunBatch(t *testing.T) {
	c := sunnyConfig(2, 30*time.Minute)
	sink := &collector{}
	runner := newTestRunner(t, c, sink)

	steps, err := runner.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 96, steps)
	require.Len(t, sink.steps, 96)

	events := 0
	for i, s := range sink.steps {
		assert.Equal(t, i, s.n)
		assert.True(t, c.Simulation.Start.Add(time.Duration(i)*30*time.Minute).Equal(s.reading.Time))
		assert.LessOrEqual(t, s.reading.SolarPower, c.Inverter.ClippingLimit)

		if s.record == nil {
			assert.Zero(t, s.reading.EnergyCurtailed)
			continue
		}
		events++
		assert.True(t, s.reading.Time.Equal(s.record.Time))
		assert.Greater(t, s.record.RawPower, c.Inverter.ClippingLimit)
		assert.InDelta(t, s.record.AmountCurtailed*0.5, s.reading.EnergyCurtailed, 1e-9)
	}
	assert.Greater(t, events, 0)
}

func TestRunBatchIsDeterministic(t *testing.T) {
	c := sunnyConfig(3, time.Hour)
	c.Solar.DailyNoiseAmplitude = 0.5
	c.Inverter.Failure.Probability = 0.5

	first, second := &collector{}, &collector{}
	_, err := newTestRunner(t, c, first).RunBatch(context.Background())
	require.NoError(t, err)
	_, err = newTestRunner(t, c, second).RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, second.steps, len(first.steps))
	for i := range first.steps {
		assert.Equal(t, first.steps[i].reading.SolarRawPower, second.steps[i].reading.SolarRawPower)
		assert.Equal(t, first.steps[i].reading.LoadPower, second.steps[i].reading.LoadPower)
		assert.Equal(t, first.steps[i].reading.InverterOK, second.steps[i].reading.InverterOK)
		assert.Equal(t, first.steps[i].record == nil, second.steps[i].record == nil)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &collector{}
	steps, err := newTestRunner(t, sunnyConfig(1, time.Hour), sink).RunBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, steps)
	assert.Empty(t, sink.steps)
}

func TestRunRealtimeMatchesBatch(t *testing.T) {
	c := sunnyConfig(1, time.Hour)

	batch, realtime := &collector{}, &collector{}
	_, err := newTestRunner(t, c, batch).RunBatch(context.Background())
	require.NoError(t, err)

	steps, err := newTestRunner(t, c, realtime).RunRealtime(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 24, steps)

	require.Len(t, realtime.steps, len(batch.steps))
	for i := range batch.steps {
		assert.Equal(t, i, realtime.steps[i].n)
		assert.True(t, batch.steps[i].reading.Time.Equal(realtime.steps[i].reading.Time))
		assert.Equal(t, batch.steps[i].reading.SolarPower, realtime.steps[i].reading.SolarPower)
		assert.InDelta(t, batch.steps[i].reading.BatterySoe, realtime.steps[i].reading.BatterySoe, 1e-9)
		assert.Equal(t, batch.steps[i].record == nil, realtime.steps[i].record == nil)
	}
}

func TestRunRealtimeCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sink := &collector{}
	steps, err := newTestRunner(t, sunnyConfig(1, time.Hour), sink).RunRealtime(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, steps, 24)
	assert.Len(t, sink.steps, steps)

	_, err = newTestRunner(t, sunnyConfig(1, time.Hour)).RunRealtime(context.Background(), 0)
	assert.Error(t, err)
}

func TestOutput(t *testing.T) {
	c := sunnyConfig(2, time.Hour)
	c.Output.PlotDay = 2
	output := NewOutput(c, c.Simulation.Start)
	recorder := metrics.New()

	_, err := newTestRunner(t, c, output, MetricsSink(recorder)).RunBatch(context.Background())
	require.NoError(t, err)

	summary := output.Summary()
	assert.Equal(t, 48, summary.Steps)
	assert.Equal(t, output.EventCount(), summary.CurtailmentEvents)
	assert.Greater(t, summary.EnergyCurtailed, 0.0)
	assert.Len(t, output.plotReadings, 24)
	assert.Equal(t, 2, dayNumber(c.Simulation.Start, output.plotReadings[0].Time))

	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, output.Write(dir))
	for _, name := range []string{eventlog.EventsFilename, eventlog.LogFilename, SummaryXLSXFilename, SummaryPDFFilename, PlotFilename(2)} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}
