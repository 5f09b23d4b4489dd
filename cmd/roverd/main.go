// roverd is the rover motion daemon: it owns the drive pipeline, the
// control and telemetry loops, and the operator-facing HTTP/WebSocket
// server. Without a configured motor bridge it drives the built-in
// simulator, which makes a laptop-only bring-up a single command.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/roverworks/go-rover5/internal/config"
	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/ambient"
	"github.com/roverworks/go-rover5/pkg/chassis"
	"github.com/roverworks/go-rover5/pkg/hub"
	"github.com/roverworks/go-rover5/pkg/odometry"
	"github.com/roverworks/go-rover5/pkg/rover"
	"github.com/roverworks/go-rover5/pkg/sim"
	"github.com/roverworks/go-rover5/pkg/telemetry"
	"github.com/roverworks/go-rover5/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	bridgeURL := flag.String("bridge", "", "motor bridge base URL (overrides config)")
	simMode := flag.Bool("sim", false, "drive the built-in simulator")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Init(config.DefaultLogLevel)
		log.Error("configuration failed", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *bridgeURL != "" {
		cfg.Bridge.URL = *bridgeURL
	}
	if *simMode {
		cfg.Sim = true
	}
	log.Init(cfg.LogLevel)

	opts := rover.Options{
		WheelDiameterMM: cfg.Encoder.WheelDiameterMM,
		CountsPerRev:    odometry.CountsPerRev(cfg.Encoder.PulsesPerThreeRevs),
		ControlRate:     cfg.ControlPeriod(),
		TelemetryRate:   cfg.TelemetryPeriod(),
		Battery:         telemetry.StubBattery{Volts: telemetry.NominalPackVoltage},
	}

	var climate ambient.Reader = ambient.Disabled{}
	if cfg.Sim || cfg.Bridge.URL == "" {
		virt := sim.NewChassis()
		opts.Output = virt
		opts.LeftEncoder = virt.LeftEncoder()
		opts.RightEncoder = virt.RightEncoder()
		opts.Battery = sim.NewBattery()
		climate = sim.NewClimate()
		log.Info("no motor bridge configured, driving the simulator")
	} else {
		bridge := chassis.NewHTTPBridge(cfg.Bridge.URL)
		opts.Output = bridge
		opts.LeftEncoder = bridge.LeftCounter()
		opts.RightEncoder = bridge.RightCounter()
		log.Info("driving motor bridge", "url", cfg.Bridge.URL)
	}

	sampler := ambient.NewSampler(climate, ambient.DefaultInterval)
	go sampler.Run()
	defer sampler.Stop()
	opts.Ambient = sampler

	h := hub.New()
	sinks := telemetry.MultiSink{telemetry.BroadcastSink{B: h}}
	if cfg.MQTT.Enabled() {
		mqttSink := telemetry.NewMQTTSink(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err := mqttSink.Connect(); err != nil {
			log.Warn("MQTT uplink unavailable", "error", err)
		} else {
			sinks = append(sinks, mqttSink)
			defer mqttSink.Close()
		}
	}
	opts.Sink = sinks

	r, err := rover.New(opts)
	if err != nil {
		log.Error("rover init failed", "error", err)
		os.Exit(1)
	}

	srv := web.New(r, h, web.Options{
		Addr:      cfg.ListenAddr,
		StaticDir: cfg.StaticDir,
	})

	r.Start()
	defer r.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Error("web server failed", "error", err)
	}

	if err := srv.Shutdown(); err != nil {
		log.Warn("web shutdown failed", "error", err)
	}
}
