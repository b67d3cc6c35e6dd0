package load

import (
	"testing"
	"time"

	"github.com/cepro/solarsim/simerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietConfig returns the default profile without any randomness.
func quietConfig() Config {
	config := DefaultConfig(time.UTC, 1)
	config.SpikeProbability = 0
	config.NoiseMinKW = 0
	config.NoiseMaxKW = 0
	return config
}

func TestDemandBumps(t *testing.T) {
	model, err := New(quietConfig())
	require.NoError(t, err)

	type subTest struct {
		name     string
		t        time.Time
		expected float64
	}

	subTests := []subTest{
		{"Night", time.Date(2023, 5, 1, 3, 0, 0, 0, time.UTC), 0.9},
		{"MorningBump", time.Date(2023, 5, 1, 7, 30, 0, 0, time.UTC), 1.5},
		{"MorningBumpEnds", time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC), 0.9},
		{"EveningPeak", time.Date(2023, 5, 1, 18, 0, 0, 0, time.UTC), 1.7},
		{"LateEvening", time.Date(2023, 5, 1, 21, 30, 0, 0, time.UTC), 0.9},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			assert.InDelta(t, subTest.expected, model.Demand(subTest.t), 1e-9)
		})
	}
}

func TestDemandIsNonNegativeAndBounded(t *testing.T) {
	config := DefaultConfig(time.UTC, 7)
	config.BaseKW = 0
	model, err := New(config)
	require.NoError(t, err)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for step := 0; step < 48*30; step++ {
		demand := model.Demand(start.Add(time.Duration(step) * 30 * time.Minute))
		assert.GreaterOrEqual(t, demand, 0.0)
		assert.Less(t, demand, 0.8+3.5+0.2)
	}
}

func TestDemandIsDeterministicForSeed(t *testing.T) {
	first, err := New(DefaultConfig(time.UTC, 11))
	require.NoError(t, err)
	second, err := New(DefaultConfig(time.UTC, 11))
	require.NoError(t, err)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for step := 0; step < 200; step++ {
		ts := start.Add(time.Duration(step) * time.Hour)
		assert.Equal(t, first.Demand(ts), second.Demand(ts))
	}
}

func TestNewValidation(t *testing.T) {
	config := quietConfig()
	config.SpikeProbability = 2
	_, err := New(config)
	assert.True(t, simerrors.IsConfigurationError(err))

	config = quietConfig()
	config.NoiseMinKW, config.NoiseMaxKW = 1, 0
	_, err = New(config)
	assert.True(t, simerrors.IsConfigurationError(err))

	config = quietConfig()
	config.Bumps[0].Period.Days = "fortnightly"
	_, err = New(config)
	assert.True(t, simerrors.IsConfigurationError(err))
}
