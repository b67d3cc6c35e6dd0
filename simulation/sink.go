package simulation

import (
	"log/slog"

	dataplatform "github.com/cepro/solarsim/data_platform"
	"github.com/cepro/solarsim/metrics"
	"github.com/cepro/solarsim/modbus"
	"github.com/cepro/solarsim/mqttpub"
	"github.com/cepro/solarsim/telemetry"
)

// Sink receives the outcome of every simulated step. `record` is nil when the inverter did not clip.
type Sink interface {
	Record(step int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(step int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord)

func (f SinkFunc) Record(step int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
	f(step, reading, record)
}

// MetricsSink updates the prometheus metrics.
func MetricsSink(recorder *metrics.Recorder) Sink {
	return SinkFunc(func(_ int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
		recorder.ObservePlantReading(reading)
		if record != nil {
			recorder.ObserveCurtailment(record.CurtailmentEvent)
		}
	})
}

// ModbusSink refreshes the registers served over modbus.
func ModbusSink(server *modbus.Server) Sink {
	return SinkFunc(func(_ int, reading telemetry.PlantReading, _ *telemetry.CurtailmentRecord) {
		server.Update(reading)
	})
}

// DataPlatformSink hands readings and events to the data platform, which must be running until the run is over.
func DataPlatformSink(d *dataplatform.DataPlatform) Sink {
	return SinkFunc(func(_ int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
		d.PlantReadings <- reading
		if record != nil {
			d.CurtailmentEvents <- *record
		}
	})
}

// MqttSink publishes readings and events live. Failed publishes are logged and dropped.
func MqttSink(p *mqttpub.Publisher) Sink {
	logger := slog.Default().With("component", "mqtt_sink")
	return SinkFunc(func(_ int, reading telemetry.PlantReading, record *telemetry.CurtailmentRecord) {
		if err := p.PublishReading(reading); err != nil {
			logger.Warn("Failed to publish reading", "error", err)
		}
		if record == nil {
			return
		}
		if err := p.PublishCurtailment(*record); err != nil {
			logger.Warn("Failed to publish curtailment event", "error", err)
		}
	})
}
