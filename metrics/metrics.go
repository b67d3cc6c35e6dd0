package metrics

import (
	"net/http"

	"github.com/cepro/solarsim/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "solarsim_"

	resultSuccess = "success"
	resultError   = "error"
)

// Recorder bundles the simulator metrics on its own registry, so that more than one can exist in a process.
type Recorder struct {
	registry *prometheus.Registry

	solarRawPower     prometheus.Gauge
	solarPower        prometheus.Gauge
	loadPower         prometheus.Gauge
	batterySoe        prometheus.Gauge
	inverterUp        prometheus.Gauge
	energy            *prometheus.CounterVec
	steps             prometheus.Counter
	curtailmentEvents prometheus.Counter
	curtailment       prometheus.Histogram
	uploads           *prometheus.CounterVec
}

// New constructs and registers metrics.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		solarRawPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "solar_raw_power_kw",
			Help: "Raw DC output of the solar array before clipping",
		}),
		solarPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "solar_power_kw",
			Help: "AC output of the inverter after clipping",
		}),
		loadPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "load_power_kw",
			Help: "Consumer demand",
		}),
		batterySoe: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "battery_soe_kwh",
			Help: "Battery state of energy",
		}),
		inverterUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "inverter_up",
			Help: "1 while the inverter is running, 0 during an outage",
		}),
		energy: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "energy_kwh_total",
				Help: "Total energy by flow",
			},
			[]string{"flow"},
		),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "steps_total",
			Help: "Total simulated steps",
		}),
		curtailmentEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "curtailment_events_total",
			Help: "Total steps where the inverter clipped the solar output",
		}),
		curtailment: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "curtailment_kw",
			Help:    "Power curtailed by the inverter per curtailment event",
			Buckets: prometheus.LinearBuckets(0.25, 0.25, 12),
		}),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "uploaded_rows_total",
				Help: "Total rows offered to the data platform by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
	r.registry.MustRegister(
		r.solarRawPower,
		r.solarPower,
		r.loadPower,
		r.batterySoe,
		r.inverterUp,
		r.energy,
		r.steps,
		r.curtailmentEvents,
		r.curtailment,
		r.uploads,
	)
	return r
}

// ObservePlantReading updates the gauges and energy counters from one simulated step.
func (r *Recorder) ObservePlantReading(reading telemetry.PlantReading) {
	r.steps.Inc()
	r.solarRawPower.Set(reading.SolarRawPower)
	r.solarPower.Set(reading.SolarPower)
	r.loadPower.Set(reading.LoadPower)
	r.batterySoe.Set(reading.BatterySoe)
	if reading.InverterOK {
		r.inverterUp.Set(1)
	} else {
		r.inverterUp.Set(0)
	}

	r.energy.WithLabelValues("generated").Add(reading.EnergyGenerated)
	r.energy.WithLabelValues("load").Add(reading.EnergyLoad)
	r.energy.WithLabelValues("curtailed").Add(reading.EnergyCurtailed)
	r.energy.WithLabelValues("spilled").Add(reading.EnergySpilled)
	r.energy.WithLabelValues("battery_charged").Add(reading.BatteryCharged)
	r.energy.WithLabelValues("battery_discharged").Add(reading.BatteryDischarge)
	r.energy.WithLabelValues("grid_import").Add(reading.GridImport)
	r.energy.WithLabelValues("grid_export").Add(reading.GridExport)
}

// ObserveCurtailment counts a curtailment event.
func (r *Recorder) ObserveCurtailment(event telemetry.CurtailmentEvent) {
	r.curtailmentEvents.Inc()
	r.curtailment.Observe(event.AmountCurtailed)
}

// ObserveUpload counts the rows of an upload attempt by result.
func (r *Recorder) ObserveUpload(kind string, count int, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	r.uploads.WithLabelValues(kind, result).Add(float64(count))
}

// Registry exposes the underlying registry, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
