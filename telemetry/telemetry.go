package telemetry

import (
	"time"

	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/google/uuid"
)

// ReadingMeta holds the fields common to every record produced by the plant.
type ReadingMeta struct {
	ID   uuid.UUID
	Time time.Time
}

// CurtailmentEvent records a tick where the inverter clipped the raw solar output to its AC limit.
// It is only produced when RawPower is greater than the clipping limit.
type CurtailmentEvent struct {
	Tick            timeutils.Tick
	RawPower        float64 // DC power offered to the inverter, kW
	ClippedPower    float64 // AC power delivered after clipping, kW
	AmountCurtailed float64 // RawPower - ClippedPower, kW
}

// PlantReading holds the energy balance of the plant for one simulated step.
type PlantReading struct {
	ReadingMeta
	Tick timeutils.Tick

	SolarRawPower float64 // raw DC output of the solar profile, kW
	SolarPower    float64 // AC output after the inverter, kW
	LoadPower     float64 // consumer demand, kW
	InverterOK    bool    // false while the inverter is in an outage
	CloudFactor   float64 // combined seasonal and daily attenuation applied to the solar curve

	EnergyGenerated float64 // kWh
	EnergyLoad      float64 // kWh
	EnergyCurtailed float64 // energy clipped by the inverter, kWh
	EnergySpilled   float64 // surplus that could neither be stored nor exported, kWh

	BatterySoe       float64 // battery state of energy after the step, kWh
	BatteryCharged   float64 // energy taken from the bus into the battery, kWh
	BatteryDischarge float64 // energy delivered from the battery to the bus, kWh

	GridImport float64 // kWh
	GridExport float64 // kWh
}

// CurtailmentRecord is a CurtailmentEvent stamped with an ID and the simulated time, ready to be stored.
type CurtailmentRecord struct {
	ReadingMeta
	CurtailmentEvent
}

// NewCurtailmentRecord stamps the event with a new ID and the simulated time `t`.
func NewCurtailmentRecord(t time.Time, event CurtailmentEvent) CurtailmentRecord {
	return CurtailmentRecord{
		ReadingMeta:      ReadingMeta{ID: uuid.New(), Time: t},
		CurtailmentEvent: event,
	}
}
