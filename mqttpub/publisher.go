package mqttpub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/solarsim/telemetry"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	ReadingsTopic    = "readings"
	CurtailmentTopic = "curtailment"

	publishTimeout = 5 * time.Second
	quiesceMillis  = 250
)

type readingMessage struct {
	ID              uuid.UUID `json:"id"`
	Time            time.Time `json:"time"`
	SolarRawPower   float64   `json:"solar_raw_kw"`
	SolarPower      float64   `json:"solar_kw"`
	LoadPower       float64   `json:"load_kw"`
	InverterOK      bool      `json:"inverter_ok"`
	BatterySoe      float64   `json:"battery_soe_kwh"`
	EnergyCurtailed float64   `json:"energy_curtailed_kwh"`
	GridImport      float64   `json:"grid_import_kwh"`
	GridExport      float64   `json:"grid_export_kwh"`
}

type curtailmentMessage struct {
	ID              uuid.UUID `json:"id"`
	Time            time.Time `json:"time"`
	RawPower        float64   `json:"raw_power_kw"`
	ClippedPower    float64   `json:"clipped_power_kw"`
	AmountCurtailed float64   `json:"amount_curtailed_kw"`
}

// Publisher sends live plant readings and curtailment events to an MQTT broker as JSON, under `<prefix>/readings` and
// `<prefix>/curtailment`.
type Publisher struct {
	client mqtt.Client
	prefix string
	logger *slog.Logger
}

// Connect dials the broker and returns a publisher using the given topic prefix.
func Connect(broker, clientID, prefix string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return New(client, prefix), nil
}

// New returns a publisher over an already connected client.
func New(client mqtt.Client, prefix string) *Publisher {
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "mqtt", "prefix", prefix),
	}
}

func (p *Publisher) topic(name string) string {
	return p.prefix + "/" + name
}

// PublishReading sends the reading with QoS 0.
func (p *Publisher) PublishReading(reading telemetry.PlantReading) error {
	return p.publish(ReadingsTopic, readingMessage{
		ID:              reading.ID,
		Time:            reading.Time,
		SolarRawPower:   reading.SolarRawPower,
		SolarPower:      reading.SolarPower,
		LoadPower:       reading.LoadPower,
		InverterOK:      reading.InverterOK,
		BatterySoe:      reading.BatterySoe,
		EnergyCurtailed: reading.EnergyCurtailed,
		GridImport:      reading.GridImport,
		GridExport:      reading.GridExport,
	})
}

// PublishCurtailment sends the event with QoS 1 so that a subscriber sees every one.
func (p *Publisher) PublishCurtailment(record telemetry.CurtailmentRecord) error {
	return p.publish(CurtailmentTopic, curtailmentMessage{
		ID:              record.ID,
		Time:            record.Time,
		RawPower:        record.RawPower,
		ClippedPower:    record.ClippedPower,
		AmountCurtailed: record.AmountCurtailed,
	})
}

func (p *Publisher) publish(name string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", name, err)
	}

	var qos byte
	if name == CurtailmentTopic {
		qos = 1
	}
	token := p.client.Publish(p.topic(name), qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out", p.topic(name))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic(name), err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(quiesceMillis)
	p.logger.Info("Disconnected")
}
