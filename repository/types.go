package repository

import (
	"time"

	"github.com/cepro/solarsim/telemetry"
	"github.com/google/uuid"
)

// StoredPlantReading represents a plant reading that is persisted to the SQLite database, and includes a count of upload attempts.
// The tick is flattened into columns so that the table can be queried by day.
type StoredPlantReading struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Time      time.Time `gorm:"index"`
	DayOfYear int
	Hour      float64

	SolarRawPower float64
	SolarPower    float64
	LoadPower     float64
	InverterOK    bool
	CloudFactor   float64

	EnergyGenerated float64
	EnergyLoad      float64
	EnergyCurtailed float64
	EnergySpilled   float64

	BatterySoe       float64
	BatteryCharged   float64
	BatteryDischarge float64

	GridImport float64
	GridExport float64

	UploadAttemptCount uint
}

// StoredCurtailmentEvent represents a curtailment event that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredCurtailmentEvent struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Time      time.Time `gorm:"index"`
	DayOfYear int
	Hour      float64

	RawPower        float64
	ClippedPower    float64
	AmountCurtailed float64

	UploadAttemptCount uint
}

func newStoredPlantReading(reading telemetry.PlantReading) StoredPlantReading {
	return StoredPlantReading{
		ID:                 reading.ID,
		Time:               reading.Time,
		DayOfYear:          reading.Tick.DayOfYear,
		Hour:               reading.Tick.Hour,
		SolarRawPower:      reading.SolarRawPower,
		SolarPower:         reading.SolarPower,
		LoadPower:          reading.LoadPower,
		InverterOK:         reading.InverterOK,
		CloudFactor:        reading.CloudFactor,
		EnergyGenerated:    reading.EnergyGenerated,
		EnergyLoad:         reading.EnergyLoad,
		EnergyCurtailed:    reading.EnergyCurtailed,
		EnergySpilled:      reading.EnergySpilled,
		BatterySoe:         reading.BatterySoe,
		BatteryCharged:     reading.BatteryCharged,
		BatteryDischarge:   reading.BatteryDischarge,
		GridImport:         reading.GridImport,
		GridExport:         reading.GridExport,
		UploadAttemptCount: 0,
	}
}

func newStoredCurtailmentEvent(record telemetry.CurtailmentRecord) StoredCurtailmentEvent {
	return StoredCurtailmentEvent{
		ID:                 record.ID,
		Time:               record.Time,
		DayOfYear:          record.Tick.DayOfYear,
		Hour:               record.Tick.Hour,
		RawPower:           record.RawPower,
		ClippedPower:       record.ClippedPower,
		AmountCurtailed:    record.AmountCurtailed,
		UploadAttemptCount: 0,
	}
}
