package supabase

import (
	"fmt"
	"time"

	"github.com/cepro/solarsim/repository"
	"github.com/google/uuid"
)

const (
	PlantReadingTableName     = "solar_plant_readings"
	CurtailmentEventTableName = "solar_curtailment_events"
)

type supabaseReadingMeta struct {
	ID        uuid.UUID `json:"id"`
	Time      time.Time `json:"time"`
	DayOfYear int       `json:"day_of_year"`
	Hour      float64   `json:"hour"`
}

// supabasePlantReading holds the json encoding schema for a plant reading in supabase.
type supabasePlantReading struct {
	supabaseReadingMeta

	SolarRawPower    float64 `json:"solar_raw_power"`
	SolarPower       float64 `json:"solar_power"`
	LoadPower        float64 `json:"load_power"`
	InverterOK       bool    `json:"inverter_ok"`
	CloudFactor      float64 `json:"cloud_factor"`
	EnergyGenerated  float64 `json:"energy_generated"`
	EnergyLoad       float64 `json:"energy_load"`
	EnergyCurtailed  float64 `json:"energy_curtailed"`
	EnergySpilled    float64 `json:"energy_spilled"`
	BatterySoe       float64 `json:"battery_soe"`
	BatteryCharged   float64 `json:"battery_charged"`
	BatteryDischarge float64 `json:"battery_discharge"`
	GridImport       float64 `json:"grid_import"`
	GridExport       float64 `json:"grid_export"`
}

// supabaseCurtailmentEvent holds the json encoding schema for a curtailment event in supabase.
type supabaseCurtailmentEvent struct {
	supabaseReadingMeta

	RawPower        float64 `json:"raw_power"`
	ClippedPower    float64 `json:"clipped_power"`
	AmountCurtailed float64 `json:"amount_curtailed"`
}

// convertReadingsForSupabase returns the equivalent "supabase type" for the given stored readings (which include
// supabase json tags) and the associated supabase table name.
func convertReadingsForSupabase(readings interface{}) (interface{}, string, error) {
	switch readingsTyped := readings.(type) {

	case *[]repository.StoredPlantReading:
		return convertReadingsForSupabase(*readingsTyped)

	case *[]repository.StoredCurtailmentEvent:
		return convertReadingsForSupabase(*readingsTyped)

	case []repository.StoredPlantReading:
		supabaseReadings := make([]supabasePlantReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			supabaseReadings = append(supabaseReadings, supabasePlantReading{
				supabaseReadingMeta: supabaseReadingMeta{
					ID:        reading.ID,
					Time:      reading.Time,
					DayOfYear: reading.DayOfYear,
					Hour:      reading.Hour,
				},
				SolarRawPower:    reading.SolarRawPower,
				SolarPower:       reading.SolarPower,
				LoadPower:        reading.LoadPower,
				InverterOK:       reading.InverterOK,
				CloudFactor:      reading.CloudFactor,
				EnergyGenerated:  reading.EnergyGenerated,
				EnergyLoad:       reading.EnergyLoad,
				EnergyCurtailed:  reading.EnergyCurtailed,
				EnergySpilled:    reading.EnergySpilled,
				BatterySoe:       reading.BatterySoe,
				BatteryCharged:   reading.BatteryCharged,
				BatteryDischarge: reading.BatteryDischarge,
				GridImport:       reading.GridImport,
				GridExport:       reading.GridExport,
			})
		}
		return supabaseReadings, PlantReadingTableName, nil

	case []repository.StoredCurtailmentEvent:
		supabaseEvents := make([]supabaseCurtailmentEvent, 0, len(readingsTyped))
		for _, event := range readingsTyped {
			supabaseEvents = append(supabaseEvents, supabaseCurtailmentEvent{
				supabaseReadingMeta: supabaseReadingMeta{
					ID:        event.ID,
					Time:      event.Time,
					DayOfYear: event.DayOfYear,
					Hour:      event.Hour,
				},
				RawPower:        event.RawPower,
				ClippedPower:    event.ClippedPower,
				AmountCurtailed: event.AmountCurtailed,
			})
		}
		return supabaseEvents, CurtailmentEventTableName, nil

	default:
		return nil, "", fmt.Errorf("unknown readings type: '%T'", readings)
	}
}
