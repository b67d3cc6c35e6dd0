package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/cepro/solarsim/cartesian"
	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

type FailureConfig struct {
	Probability       float64 `json:"probability"`       // chance of an outage starting at each midnight
	MeanDurationHours float64 `json:"meanDurationHours"` // outages last max(1h, N(mean, mean/2))
}

type InverterConfig struct {
	ClippingLimit float64       `json:"clippingLimit"` // kW
	Failure       FailureConfig `json:"failure"`
}

type SolarConfig struct {
	PeakPower           float64           `json:"peakPower"` // kW
	SunriseHour         float64           `json:"sunriseHour"`
	SunsetHour          float64           `json:"sunsetHour"`
	SeasonalAmplitude   float64           `json:"seasonalAmplitude"`
	DailyNoiseAmplitude float64           `json:"dailyNoiseAmplitude"`
	SouthernHemisphere  bool              `json:"southernHemisphere"`
	CloudModel          string            `json:"cloudModel"`
	SeasonalCurve       []cartesian.Point `json:"seasonalCurve"` // optional (day of year, attenuation) points
}

type BatteryConfig struct {
	CapacityKWh        float64 `json:"capacityKWh"`
	MinSoeFraction     float64 `json:"minSoeFraction"`
	Efficiency         float64 `json:"efficiency"`
	InitialSoeFraction float64 `json:"initialSoeFraction"`
}

type LoadBumpConfig struct {
	Period timeutils.DayedPeriod `json:"period"`
	KW     float64               `json:"kw"`
}

type LoadConfig struct {
	BaseKW           float64          `json:"baseKW"`
	SpikeProbability float64          `json:"spikeProbability"`
	SpikeMaxKW       float64          `json:"spikeMaxKW"`
	NoiseMinKW       float64          `json:"noiseMinKW"`
	NoiseMaxKW       float64          `json:"noiseMaxKW"`
	Bumps            []LoadBumpConfig `json:"bumps"` // defaults to a morning and an evening bump if empty
}

type GridConfig struct {
	CanExport     bool    `json:"canExport"`
	ExportLimitKW float64 `json:"exportLimitKW"`
	ImportTariff  Tariff  `json:"importTariff"`
	ExportTariff  Tariff  `json:"exportTariff"`
}

type SimulationConfig struct {
	Start            time.Time     `json:"start"`
	Days             int           `json:"days"`
	Timestep         time.Duration `json:"timestep"`
	Location         string        `json:"location"`
	RandomSeed       *uint64       `json:"randomSeed"`       // a time based seed is used and logged if nil
	RealtimeInterval time.Duration `json:"realtimeInterval"` // wall-clock time per step, zero runs as fast as possible
}

type OutputConfig struct {
	Dir     string `json:"dir"`
	PlotDay int    `json:"plotDay"` // day of the simulation to plot to a PNG, zero for no plot
}

// SupabaseConfig locates the Supabase project. The anon key, user key and JWT secret are given by env vars.
type SupabaseConfig struct {
	Url          string        `json:"url"`
	Schema       string        `json:"schema"`
	UserRole     string        `json:"userRole"`     // role claim of minted user JWTs
	UserTokenTTL time.Duration `json:"userTokenTtl"` // lifetime of minted user JWTs
}

type DataPlatformConfig struct {
	Enabled            bool           `json:"enabled"`
	SqlitePath         string         `json:"sqlitePath"`
	UploadIntervalSecs int            `json:"uploadIntervalSecs"`
	Supabase           SupabaseConfig `json:"supabase"`
}

type ModbusConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"` // e.g. "tcp://0.0.0.0:1502"
}

// MqttConfig controls the live publishing of readings and curtailment events in realtime mode.
type MqttConfig struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"` // e.g. "tcp://localhost:1883"
	ClientID    string `json:"clientId"`
	TopicPrefix string `json:"topicPrefix"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"` // e.g. ":9102"
}

type Config struct {
	Solar        SolarConfig        `json:"solar"`
	Inverter     InverterConfig     `json:"inverter"`
	Battery      BatteryConfig      `json:"battery"`
	Load         LoadConfig         `json:"load"`
	Grid         GridConfig         `json:"grid"`
	Simulation   SimulationConfig   `json:"simulation"`
	Output       OutputConfig       `json:"output"`
	DataPlatform DataPlatformConfig `json:"dataPlatform"`
	Modbus       ModbusConfig       `json:"modbus"`
	Metrics      MetricsConfig      `json:"metrics"`
	Mqtt         MqttConfig         `json:"mqtt"`
}

// Default returns the config of a small domestic plant: a 6kW array behind a 5kW inverter with a 5kWh battery,
// simulated for one day at 30 minute steps.
func Default() Config {
	return Config{
		Solar: SolarConfig{
			PeakPower:           6,
			SunriseHour:         6,
			SunsetHour:          18,
			SeasonalAmplitude:   0.3,
			DailyNoiseAmplitude: 0.5,
			CloudModel:          "uniform",
		},
		Inverter: InverterConfig{
			ClippingLimit: 5,
			Failure: FailureConfig{
				Probability:       0.05,
				MeanDurationHours: 7,
			},
		},
		Battery: BatteryConfig{
			CapacityKWh:        5,
			MinSoeFraction:     0.05,
			Efficiency:         0.9,
			InitialSoeFraction: 0.5,
		},
		Load: LoadConfig{
			BaseKW:           0.9,
			SpikeProbability: 0.05,
			SpikeMaxKW:       3.5,
			NoiseMinKW:       -0.1,
			NoiseMaxKW:       0.2,
		},
		Grid: GridConfig{
			CanExport:     true,
			ExportLimitKW: 5,
			ImportTariff:  Tariff{FlatRate: 25},
			ExportTariff:  Tariff{FlatRate: 15},
		},
		Simulation: SimulationConfig{
			Start:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			Days:     1,
			Timestep: 30 * time.Minute,
			Location: "UTC",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		DataPlatform: DataPlatformConfig{
			SqlitePath:         "telemetry.sqlite",
			UploadIntervalSecs: 5,
			Supabase: SupabaseConfig{
				Schema:       "public",
				UserRole:     "authenticated",
				UserTokenTTL: time.Hour,
			},
		},
		Modbus: ModbusConfig{
			Listen: "tcp://0.0.0.0:1502",
		},
		Metrics: MetricsConfig{
			Listen: ":9102",
		},
		Mqtt: MqttConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "solarsim",
			TopicPrefix: "solarsim",
		},
	}
}

// Read loads the JSON or YAML config file at `path` over the top of the defaults.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(content)
}

// Parse decodes a JSON or YAML document over the top of the defaults. Durations are given as strings, e.g. "30m", and
// times as RFC3339 strings.
func Parse(content []byte) (Config, error) {
	// JSON is a subset of YAML so one decoder serves both formats
	var raw map[string]interface{}
	err := yaml.Unmarshal(content, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	config := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &config,
		ErrorUnused: true,
		Squash:      true, // so that a DayedPeriod reads as {start, end, days}
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			clockTimeHookFunc(),
		),
	})
	if err != nil {
		return Config{}, fmt.Errorf("create config decoder: %w", err)
	}
	err = decoder.Decode(raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	err = config.validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

// clockTimeHookFunc decodes "HH:MM" or "HH:MM:SS" strings into ClockTimes in UTC. Other locations are applied later
// with `InLocation`.
func clockTimeHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(timeutils.ClockTime{}) {
			return data, nil
		}
		return timeutils.ParseClockTime(data.(string), time.UTC)
	}
}

func (c Config) validate() error {
	if c.Simulation.Days < 1 {
		return fmt.Errorf("simulation days must be at least 1, got %d", c.Simulation.Days)
	}
	if c.Simulation.Timestep <= 0 {
		return fmt.Errorf("simulation timestep must be positive, got %s", c.Simulation.Timestep)
	}
	if c.Simulation.Timestep > 24*time.Hour {
		return fmt.Errorf("simulation timestep must be at most a day, got %s", c.Simulation.Timestep)
	}
	for _, bump := range c.Load.Bumps {
		if bump.Period.End.FractionalHour() < bump.Period.Start.FractionalHour() {
			return fmt.Errorf("load bump periods must not cross midnight")
		}
	}
	if err := c.Grid.ImportTariff.validate("import"); err != nil {
		return err
	}
	if err := c.Grid.ExportTariff.validate("export"); err != nil {
		return err
	}
	if c.Output.PlotDay < 0 || c.Output.PlotDay > c.Simulation.Days {
		return fmt.Errorf("output plot day must be within the simulated %d days, got %d", c.Simulation.Days, c.Output.PlotDay)
	}
	if c.Mqtt.Enabled && c.Simulation.RealtimeInterval == 0 {
		return errors.New("mqtt publishing requires a realtime interval")
	}
	if c.DataPlatform.Enabled && c.DataPlatform.Supabase.UserTokenTTL <= 0 {
		return fmt.Errorf("supabase user token ttl must be positive, got %s", c.DataPlatform.Supabase.UserTokenTTL)
	}
	return nil
}

// InLocation moves every clock time in the config into the given location.
func (c *Config) InLocation(loc *time.Location) {
	for i := range c.Load.Bumps {
		c.Load.Bumps[i].Period.ClockTimePeriod = c.Load.Bumps[i].Period.ClockTimePeriod.InLocation(loc)
	}
	c.Grid.ImportTariff.inLocation(loc)
	c.Grid.ExportTariff.inLocation(loc)
}

// Location loads the configured simulation time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Simulation.Location)
	if err != nil {
		return nil, fmt.Errorf("load location '%s': %w", c.Simulation.Location, err)
	}
	return loc, nil
}

// StartIn returns the configured start with its wall clock read in the given location, so that "2024-06-01T00:00:00Z"
// starts at local midnight wherever the plant is.
func (c Config) StartIn(loc *time.Location) time.Time {
	s := c.Simulation.Start
	return time.Date(s.Year(), s.Month(), s.Day(), s.Hour(), s.Minute(), s.Second(), s.Nanosecond(), loc)
}
