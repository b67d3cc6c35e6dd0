package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cepro/solarsim/config"
	dataplatform "github.com/cepro/solarsim/data_platform"
	"github.com/cepro/solarsim/metrics"
	"github.com/cepro/solarsim/modbus"
	"github.com/cepro/solarsim/mqttpub"
	"github.com/cepro/solarsim/simulation"
	"github.com/cepro/solarsim/supabase"
)

// flushRounds bounds the uploads attempted after the run before buffered rows are left for the next run.
const flushRounds = 20

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file, the defaults are used if empty")
	logPath := flag.String("log-file", "", "also write the log to this file")
	flag.Parse()

	var logOutput io.Writer = os.Stdout
	if *logPath != "" {
		logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}
	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Exiting")
}

func run(configPath string) error {
	slog.Info("Starting solar simulation...")

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Read(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	location, err := cfg.Location()
	if err != nil {
		return err
	}
	cfg.InLocation(location)
	start := cfg.StartIn(location)

	seed := simulation.ResolveSeed(cfg)
	slog.Info("Using random seed", "seed", seed, "configured", cfg.Simulation.RandomSeed != nil)

	components, err := simulation.Build(cfg, location, seed)
	if err != nil {
		return err
	}

	// an interrupt stops the run early, but the outputs of the steps so far are still written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	output := simulation.NewOutput(cfg, start)
	sinks := []simulation.Sink{output}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
		sinks = append(sinks, simulation.MetricsSink(recorder))

		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		metricsServer := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			err := metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer metricsServer.Close()
		slog.Info("Serving metrics", "listen", cfg.Metrics.Listen)
	}

	if cfg.Modbus.Enabled {
		modbusServer, err := modbus.NewServer(cfg.Modbus.Listen, cfg.Inverter.ClippingLimit)
		if err != nil {
			return err
		}
		err = modbusServer.Start()
		if err != nil {
			return fmt.Errorf("start modbus server: %w", err)
		}
		defer modbusServer.Stop()
		sinks = append(sinks, simulation.ModbusSink(modbusServer))
	}

	if cfg.Mqtt.Enabled {
		publisher, err := mqttpub.Connect(cfg.Mqtt.Broker, cfg.Mqtt.ClientID, cfg.Mqtt.TopicPrefix)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer publisher.Close()
		sinks = append(sinks, simulation.MqttSink(publisher))
	}

	var dataPlatform *dataplatform.DataPlatform
	var dataPlatformDone chan struct{}
	stopDataPlatform := func() {}
	if cfg.DataPlatform.Enabled {
		dataPlatform, err = newDataPlatform(cfg.DataPlatform)
		if err != nil {
			return err
		}
		defer dataPlatform.Close()
		if recorder != nil {
			dataPlatform.SetObserver(recorder)
		}

		// the data platform outlives an interrupted run so that the steps so far are still stored
		var dataPlatformCtx context.Context
		dataPlatformCtx, stopDataPlatform = context.WithCancel(context.Background())
		dataPlatformDone = make(chan struct{})
		go func() {
			dataPlatform.Run(dataPlatformCtx)
			close(dataPlatformDone)
		}()
		sinks = append(sinks, simulation.DataPlatformSink(dataPlatform))
	}

	runner, err := simulation.NewRunner(components.Plant, start, cfg.Simulation.Days, cfg.Simulation.Timestep, sinks...)
	if err != nil {
		return err
	}

	var steps int
	var runErr error
	if cfg.Simulation.RealtimeInterval > 0 {
		steps, runErr = runner.RunRealtime(ctx, cfg.Simulation.RealtimeInterval)
	} else {
		steps, runErr = runner.RunBatch(ctx)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run: %w", runErr)
	}
	slog.Info("Simulation finished", "steps", steps, "of", runner.Steps(), "interrupted", runErr != nil)

	if dataPlatform != nil {
		stopDataPlatform()
		<-dataPlatformDone
		err = dataPlatform.Flush(flushRounds)
		if err != nil {
			slog.Warn("Some telemetry was not uploaded, it stays buffered for the next run", "error", err)
		}
	}

	if steps == 0 {
		return nil
	}
	output.Summary().Log(slog.Default())
	err = output.Write(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("Wrote output", "dir", cfg.Output.Dir, "curtailment_events", output.EventCount())

	return nil
}

func newDataPlatform(cfg config.DataPlatformConfig) (*dataplatform.DataPlatform, error) {
	client, err := supabase.New(cfg.Supabase.Url, os.Getenv("SUPABASE_ANON_KEY"), os.Getenv("SUPABASE_USER_KEY"), cfg.Supabase.Schema)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	if secret := os.Getenv("SUPABASE_JWT_SECRET"); secret != "" {
		err = client.MintUserKeys([]byte(secret), cfg.Supabase.UserRole, cfg.Supabase.UserTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("mint supabase user keys: %w", err)
		}
	}

	dataPlatform, err := dataplatform.New(client, cfg.SqlitePath, time.Duration(cfg.UploadIntervalSecs)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("create data platform: %w", err)
	}
	return dataPlatform, nil
}
