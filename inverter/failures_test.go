package inverter

import (
	"testing"

	"github.com/cepro/solarsim/simerrors"
	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFailureScheduleValidation(t *testing.T) {
	_, err := NewFailureSchedule(FailureConfig{Probability: 1.5, MeanDurationHours: 7})
	assert.True(t, simerrors.IsConfigurationError(err))

	_, err = NewFailureSchedule(FailureConfig{Probability: 0.05, MeanDurationHours: 0})
	assert.True(t, simerrors.IsConfigurationError(err))

	_, err = NewFailureSchedule(FailureConfig{Probability: 0, MeanDurationHours: 0})
	assert.NoError(t, err)
}

func TestNoFailures(t *testing.T) {
	schedule, err := NewFailureSchedule(FailureConfig{Probability: 0})
	require.NoError(t, err)

	for day := 1; day <= 365; day++ {
		assert.False(t, schedule.IsDown(timeutils.Tick{DayOfYear: day, Hour: 0}))
		assert.Equal(t, 0.0, schedule.OutageHours(day))
	}

	var nilSchedule *FailureSchedule
	assert.False(t, nilSchedule.IsDown(timeutils.Tick{DayOfYear: 1, Hour: 0}))
}

func TestFailureEveryDay(t *testing.T) {
	schedule, err := NewFailureSchedule(FailureConfig{Probability: 1, MeanDurationHours: 7, RandomSeed: 3})
	require.NoError(t, err)

	for day := 1; day <= 365; day++ {
		outage := schedule.OutageHours(day)
		assert.GreaterOrEqual(t, outage, minimumOutageHours)
		assert.True(t, schedule.IsDown(timeutils.Tick{DayOfYear: day, Hour: 0.5}))
	}
}

func TestFailureScheduleIsDeterministic(t *testing.T) {
	config := FailureConfig{Probability: 0.2, MeanDurationHours: 7, RandomSeed: 99}
	first, err := NewFailureSchedule(config)
	require.NoError(t, err)
	second, err := NewFailureSchedule(config)
	require.NoError(t, err)

	for day := 1; day <= timeutils.MaxDayOfYear; day++ {
		assert.Equal(t, first.OutageHours(day), second.OutageHours(day))
	}
}

func TestOutageRunsPastMidnight(t *testing.T) {
	schedule := &FailureSchedule{}
	schedule.outageHours[10] = 30
	schedule.longestOutage = 30

	type subTest struct {
		name         string
		tick         timeutils.Tick
		expectedDown bool
	}

	subTests := []subTest{
		{"DayBefore", timeutils.Tick{DayOfYear: 9, Hour: 23}, false},
		{"StartOfOutage", timeutils.Tick{DayOfYear: 10, Hour: 0}, true},
		{"EveningOfFirstDay", timeutils.Tick{DayOfYear: 10, Hour: 20}, true},
		{"NextMorning", timeutils.Tick{DayOfYear: 11, Hour: 5.5}, true},
		{"OutageOver", timeutils.Tick{DayOfYear: 11, Hour: 6}, false},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			assert.Equal(t, subTest.expectedDown, schedule.IsDown(subTest.tick))
		})
	}
}
