package battery

import (
	"testing"

	"github.com/cepro/solarsim/simerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBattery(t *testing.T, initialSoeFraction float64) *Battery {
	t.Helper()
	b, err := New(Config{
		CapacityKWh:        10,
		MinSoeFraction:     0.05,
		Efficiency:         0.9,
		InitialSoeFraction: initialSoeFraction,
	})
	require.NoError(t, err)
	return b
}

func TestNewValidation(t *testing.T) {
	type subTest struct {
		name   string
		config Config
	}

	subTests := []subTest{
		{"NegativeCapacity", Config{CapacityKWh: -1, Efficiency: 0.9}},
		{"ZeroEfficiency", Config{CapacityKWh: 5, Efficiency: 0}},
		{"EfficiencyAboveOne", Config{CapacityKWh: 5, Efficiency: 1.2}},
		{"MinSoeAboveOne", Config{CapacityKWh: 5, Efficiency: 0.9, MinSoeFraction: 2}},
		{"InitialSoeNegative", Config{CapacityKWh: 5, Efficiency: 0.9, InitialSoeFraction: -0.5}},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			_, err := New(subTest.config)
			assert.True(t, simerrors.IsConfigurationError(err))
		})
	}
}

func TestCharge(t *testing.T) {
	b := newTestBattery(t, 0.5)

	accepted := b.Apply(2)
	assert.InDelta(t, 2, accepted, 1e-9)
	assert.InDelta(t, 5+2*0.9, b.Soe(), 1e-9)

	// Only enough headroom for part of the offer
	accepted = b.Apply(10)
	assert.InDelta(t, (10-6.8)/0.9, accepted, 1e-9)
	assert.InDelta(t, 10, b.Soe(), 1e-9)

	// Full battery accepts nothing
	assert.Equal(t, 0.0, b.Apply(1))
}

func TestDischarge(t *testing.T) {
	b := newTestBattery(t, 0.5)

	delivered := b.Apply(-0.9)
	assert.InDelta(t, -0.9, delivered, 1e-9)
	assert.InDelta(t, 4, b.Soe(), 1e-9)

	// Can only go down to the minimum state of energy
	delivered = b.Apply(-100)
	assert.InDelta(t, -(4-0.5)*0.9, delivered, 1e-9)
	assert.InDelta(t, 0.5, b.Soe(), 1e-9)

	assert.Equal(t, 0.0, b.Apply(-1))
}

func TestSoeStaysInRange(t *testing.T) {
	b := newTestBattery(t, 0.2)

	for i, delta := range []float64{3, -7, 12, 0, -0.3, 8, -20, 5} {
		b.Apply(delta)
		assert.GreaterOrEqual(t, b.Soe(), 0.5-1e-9, "step %d", i)
		assert.LessOrEqual(t, b.Soe(), b.CapacityKWh()+1e-9, "step %d", i)
	}
}

func TestZeroCapacityBattery(t *testing.T) {
	b, err := New(Config{Efficiency: 1})
	require.NoError(t, err)

	assert.Equal(t, 0.0, b.Apply(5))
	assert.Equal(t, 0.0, b.Apply(-5))
}
