package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cepro/solarsim/telemetry"
	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "telemetry.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testReading(t time.Time) telemetry.PlantReading {
	return telemetry.PlantReading{
		ReadingMeta:     telemetry.ReadingMeta{ID: uuid.New(), Time: t},
		Tick:            timeutils.TickFromTime(t),
		SolarRawPower:   5.5,
		SolarPower:      5,
		LoadPower:       1.2,
		InverterOK:      true,
		EnergyGenerated: 2.5,
		GridExport:      1.9,
	}
}

func TestPlantReadingUploadLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AddPlantReading(testReading(start.Add(time.Duration(i)*30*time.Minute))))
	}

	fresh, err := repo.GetPlantReadings(3, true)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	// newest first
	assert.True(t, fresh[0].Time.After(fresh[1].Time))
	assert.Equal(t, 153, fresh[0].DayOfYear)
	assert.Equal(t, 5.0, fresh[0].SolarPower)
	assert.True(t, fresh[0].InverterOK)

	old, err := repo.GetPlantReadings(10, false)
	require.NoError(t, err)
	assert.Empty(t, old)

	// a failed upload moves the readings out of the fresh set
	require.NoError(t, repo.IncrementUploadAttemptCount(&fresh))
	old, err = repo.GetPlantReadings(10, false)
	require.NoError(t, err)
	require.Len(t, old, 3)
	assert.Equal(t, uint(1), old[0].UploadAttemptCount)

	fresh, err = repo.GetPlantReadings(10, true)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	// a successful upload deletes them
	require.NoError(t, repo.DeleteReadings(&old))
	count, err := repo.CountPlantReadings()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCurtailmentEvents(t *testing.T) {
	repo := newTestRepository(t)
	at := time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC)

	record := telemetry.NewCurtailmentRecord(at, telemetry.CurtailmentEvent{
		Tick:            timeutils.TickFromTime(at),
		RawPower:        5.5,
		ClippedPower:    5,
		AmountCurtailed: 0.5,
	})
	require.NoError(t, repo.AddCurtailmentEvent(record))

	events, err := repo.GetCurtailmentEvents(10, true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, record.ID, events[0].ID)
	assert.True(t, at.Equal(events[0].Time))
	assert.Equal(t, 12.5, events[0].Hour)
	assert.Equal(t, 0.5, events[0].AmountCurtailed)

	// IDs are unique
	assert.Error(t, repo.AddCurtailmentEvent(record))

	require.NoError(t, repo.DeleteReadings(&events))
	count, err := repo.CountCurtailmentEvents()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
