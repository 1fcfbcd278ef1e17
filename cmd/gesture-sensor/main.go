// Command gesture-sensor samples accelerometer motion, classifies it into
// gestures, and reports results over console, serial, or MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/config"
	"github.com/sweeney/gesture-sensor/internal/health"
	"github.com/sweeney/gesture-sensor/internal/output"
	"github.com/sweeney/gesture-sensor/internal/pipeline"
	"github.com/sweeney/gesture-sensor/internal/results"
	"github.com/sweeney/gesture-sensor/internal/sensor"
	"github.com/sweeney/gesture-sensor/internal/timing"
	"github.com/sweeney/gesture-sensor/internal/web"
	"github.com/sweeney/gesture-sensor/internal/window"
)

// version is stamped by the build; "dev" for local runs.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	sensorFlag := flag.String("sensor", "", `Accelerometer backend, "sim" or "real" (overrides config)`)
	formatFlag := flag.String("format", "", `Record format, "json" or "human" (overrides config)`)
	outputsFlag := flag.String("outputs", "", `Comma-separated outputs, e.g. "console,mqtt" (overrides config)`)
	httpFlag := flag.String("http", "", "HTTP health address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *sensorFlag != "" {
		cfg.Sensor = *sensorFlag
	}
	if *formatFlag != "" {
		cfg.Format = *formatFlag
	}
	if *outputsFlag != "" {
		cfg.Outputs = strings.Split(*outputsFlag, ",")
	}
	if *httpFlag != "" {
		cfg.HTTPAddr = *httpFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config) error {
	start := time.Now()

	// Accelerometer
	reader, err := buildSensor(cfg)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()
	if err := reader.Init(); err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}

	// Window accumulator and classification engine
	acc, err := window.New(cfg.WindowSize)
	if err != nil {
		return err
	}
	engine := classify.NewSimEngine(classify.SimConfig{InputSize: acc.InputSize()})
	if err := engine.Init(); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	// Outputs
	emitter, err := buildEmitter(cfg)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer emitter.Close()

	// Health and timing
	monitor := health.New(health.Config{
		MaxTasks:             cfg.MaxMonitoredTasks,
		WarnThresholdPercent: cfg.StackWarnPercent,
		TargetTask:           pipeline.TaskClassifier,
	})
	svc := timing.NewService(timing.NewCycleClock(cfg.ClockHz), cfg.ClockHz)

	queue, err := results.New(cfg.QueueCapacity)
	if err != nil {
		return err
	}

	pipe, err := pipeline.New(pipeline.Config{
		SamplePeriod:  cfg.SamplePeriod(),
		ClassifyWait:  cfg.ClassifyWait,
		EmitPoll:      cfg.EmitPoll,
		MonitorPeriod: cfg.MonitorPeriod,
	}, pipeline.Deps{
		Sensor:  reader,
		Engine:  engine,
		Emitter: emitter,
		Health:  monitor,
		Timing:  svc,
		Window:  acc,
		Queue:   queue,
	})
	if err != nil {
		return fmt.Errorf("assemble pipeline: %w", err)
	}

	// Startup banner
	info := output.Info{
		Version:   version,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		SessionID: uuid.NewString(),
	}
	if err := emitter.EmitBanner(info); err != nil {
		log.Printf("emit banner: %v", err)
	}

	// HTTP health endpoint
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, monitor, pipe)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http health server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: sensor=%s rate=%dHz window=%d outputs=%v session=%s",
		cfg.Sensor, cfg.SampleRateHz, cfg.WindowSize, cfg.Outputs, info.SessionID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- pipe.Run(ctx) }()

	heartbeatLoop(ctx, emitter, start, cfg.HeartbeatPeriod)

	<-done
	log.Printf("shutting down: samples=%d windows=%d dropped=%d",
		pipe.Stats().SamplesRead, pipe.Stats().WindowsClassified, pipe.Stats().ResultsDropped)
	return nil
}

// heartbeatLoop emits liveness records until ctx is cancelled. A zero
// period disables heartbeats and just waits for shutdown.
func heartbeatLoop(ctx context.Context, emitter output.Emitter, start time.Time, period time.Duration) {
	if period <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := emitter.EmitHeartbeat(time.Since(start)); err != nil {
				log.Printf("heartbeat: %v", err)
			}
		}
	}
}

func buildSensor(cfg *config.Config) (sensor.Reader, error) {
	switch cfg.Sensor {
	case "real":
		return sensor.NewRealReader(sensor.RealConfig{
			IIODir:   cfg.Real.IIODir,
			GPIOChip: cfg.Real.GPIOChip,
			IntPin:   cfg.Real.IntPin,
		})
	default:
		return sensor.NewSimReader(sensor.SimConfig{
			SampleRateHz:    cfg.SampleRateHz,
			GestureInterval: cfg.Sim.GestureInterval,
		}), nil
	}
}

func buildEmitter(cfg *config.Config) (output.Emitter, error) {
	format, ok := output.ParseFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("unknown format %q", cfg.Format)
	}

	var emitters []output.Emitter
	for _, o := range cfg.Outputs {
		switch o {
		case "console":
			emitters = append(emitters, output.NewConsole(os.Stdout, format))
		case "serial":
			e, err := output.NewSerial(output.SerialConfig{
				Port:     cfg.Serial.Port,
				BaudRate: cfg.Serial.BaudRate,
			}, format)
			if err != nil {
				return nil, err
			}
			emitters = append(emitters, e)
		case "mqtt":
			e, err := output.NewMQTT(output.MQTTConfig{
				Broker:   cfg.MQTT.Broker,
				ClientID: cfg.MQTT.ClientID,
			})
			if err != nil {
				return nil, err
			}
			emitters = append(emitters, e)
		default:
			return nil, fmt.Errorf("unknown output %q", o)
		}
	}

	if len(emitters) == 1 {
		return emitters[0], nil
	}
	return output.NewMulti(emitters...), nil
}
