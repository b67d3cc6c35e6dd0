package supabase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cepro/solarsim/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertReadingsForSupabase(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC)

	readings := []repository.StoredPlantReading{{ID: id, Time: at, DayOfYear: 153, Hour: 12.5, SolarPower: 5, InverterOK: true, UploadAttemptCount: 3}}
	events := []repository.StoredCurtailmentEvent{{ID: id, Time: at, DayOfYear: 153, Hour: 12.5, RawPower: 5.5, ClippedPower: 5, AmountCurtailed: 0.5}}

	type subTest struct {
		name              string
		readings          interface{}
		expectedTable     string
		expectedJsonField string
	}

	subTests := []subTest{
		{"PlantReadings", readings, PlantReadingTableName, "solar_power"},
		{"PlantReadingsPointer", &readings, PlantReadingTableName, "inverter_ok"},
		{"CurtailmentEvents", events, CurtailmentEventTableName, "amount_curtailed"},
		{"CurtailmentEventsPointer", &events, CurtailmentEventTableName, "raw_power"},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			converted, table, err := convertReadingsForSupabase(subTest.readings)
			require.NoError(t, err)
			assert.Equal(t, subTest.expectedTable, table)

			encoded, err := json.Marshal(converted)
			require.NoError(t, err)

			var rows []map[string]interface{}
			require.NoError(t, json.Unmarshal(encoded, &rows))
			require.Len(t, rows, 1)
			assert.Equal(t, id.String(), rows[0]["id"])
			assert.Equal(t, 153.0, rows[0]["day_of_year"])
			assert.Contains(t, rows[0], subTest.expectedJsonField)
			assert.NotContains(t, rows[0], "UploadAttemptCount")
		})
	}
}

func TestConvertUnknownReadings(t *testing.T) {
	_, _, err := convertReadingsForSupabase([]string{"nope"})
	assert.Error(t, err)
}

func TestNewRequiresUrlAndKey(t *testing.T) {
	_, err := New("", "key", "", "public")
	assert.Error(t, err)
	_, err = New("https://example.supabase.co", "", "", "public")
	assert.Error(t, err)

	client, err := New("https://example.supabase.co", "key", "", "public")
	require.NoError(t, err)
	assert.NotNil(t, client)
}
