// M.U.K.H.T.A.R - home automation controller
//
// This is the main entry point. The controller drives relay outputs and
// reads analog sensors through a cloud IoT relay, runs a background
// automation loop, raises emergency alerts, and takes commands from the
// console, and optionally over HTTP and MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nerrad567/mukhtar/internal/api"
	"github.com/nerrad567/mukhtar/internal/assistant"
	"github.com/nerrad567/mukhtar/internal/automation"
	"github.com/nerrad567/mukhtar/internal/command"
	"github.com/nerrad567/mukhtar/internal/console"
	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
	"github.com/nerrad567/mukhtar/internal/infrastructure/logging"
	"github.com/nerrad567/mukhtar/internal/journal"
	"github.com/nerrad567/mukhtar/internal/persona"
	"github.com/nerrad567/mukhtar/internal/relay"
	"github.com/nerrad567/mukhtar/internal/sensor"
	"github.com/nerrad567/mukhtar/internal/status"
	"github.com/nerrad567/mukhtar/internal/voice"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s initialization failed: %v\n", persona.Name, err)
		os.Exit(1)
	}
}

// run wires the controller and blocks until the console exits or ctx is
// cancelled. Only configuration errors are returned; optional components
// that fail to start are logged and left out.
func run(ctx context.Context, in io.Reader, out io.Writer) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting controller",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"devices", len(cfg.Devices),
	)

	// Core components
	relayClient := relay.New(cfg.Relay)

	registry := device.NewRegistry(relayClient, cfg.Devices)
	registry.SetLogger(log.Component("device"))

	gateway := sensor.NewGateway(relayClient, cfg.Sensors)
	gateway.SetLogger(log.Component("sensor"))

	mode := automation.NewMode(cfg.Automation.Enabled)
	book := persona.NewBook(cfg.Responses, nil)
	thresholds := cfg.Automation.Thresholds

	reporter := status.NewReporter(gateway, registry, mode, status.Thresholds{
		TemperatureHigh: thresholds.Temperature.FanOn,
		GasAlert:        thresholds.Gas.Alert,
	})

	dispatcher := assistant.NewDispatcher(
		command.NewInterpreter(registry.Names()),
		registry, gateway, reporter, mode, book,
		assistant.Options{
			TemperatureHigh: thresholds.Temperature.FanOn,
			GasAlert:        thresholds.Gas.Alert,
		},
	)
	dispatcher.SetLogger(log.Component("assistant"))

	term := console.New(in, out, dispatcher)
	term.SetLogger(log.Component("console"))

	// Notification channels
	channel, closeSenders := buildNotifier(cfg.Notify, log)
	defer closeSenders()
	var notifier automation.Notifier = channel

	checks := make(map[string]api.HealthChecker)
	announcers := announcerSet{term}

	// Journal (optional)
	var events *journal.Journal
	if cfg.Database.Enabled {
		db, jrn, jErr := openJournal(ctx, cfg.Database, log)
		if jErr != nil {
			log.Warn("journal disabled", "error", jErr)
		} else {
			defer func() {
				log.Info("closing database")
				if closeErr := db.Close(); closeErr != nil {
					log.Error("error closing database", "error", closeErr)
				}
			}()
			events = jrn
			checks["database"] = db
			registry.AddObserver(events)
			mode.OnChange(func(auto bool) { events.ModeChanged(context.Background(), auto) })
			notifier = events.RecordAlerts(notifier)
			term.SetRecorder(events)
		}
	}

	// InfluxDB telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influx, iErr := connectInflux(cfg.InfluxDB, log)
		if iErr != nil {
			log.Warn("telemetry disabled", "error", iErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influx.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			checks["influxdb"] = influx
			registry.AddObserver(influx)
			gateway.AddObserver(influx)
			notifier = influx.RecordAlerts(notifier)
		}
	}

	// MQTT bridge (optional)
	if cfg.MQTT.Enabled {
		mqttClient, br, mErr := startBridge(ctx, cfg.MQTT, dispatcher, events, log)
		if mErr != nil {
			log.Warn("mqtt bridge disabled", "error", mErr)
		} else {
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			checks["mqtt"] = mqttClient
			registry.AddObserver(br)
			gateway.AddObserver(br)
			mode.OnChange(br.ModeChanged)
			notifier = br.PublishAlerts(notifier)
		}
	}

	// HTTP API (optional)
	var loop *automation.Loop
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, log.Component("api"))
		registry.AddObserver(hub)
		gateway.AddObserver(hub)
		mode.OnChange(hub.ModeChanged)
		notifier = hub.RelayAlerts(notifier)
		announcers = append(announcers, hub)

		loop = automation.NewLoop(mode, registry, gateway, notifier, book, automation.OptionsFromConfig(cfg.Automation))

		deps := api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log,
			Devices:  registry,
			Sensors:  gateway,
			Reporter: reporter,
			Commands: dispatcher,
			Mode:     mode,
			Loop:     loop,
			Checks:   checks,
			Hub:      hub,
			Version:  version,
		}
		if events != nil {
			deps.Journal = events
			deps.Recorder = events
		}
		server, sErr := api.New(deps)
		if sErr == nil {
			go hub.Run(ctx)
			sErr = server.Start(ctx)
		}
		if sErr != nil {
			log.Warn("api disabled", "error", sErr)
		} else {
			defer func() {
				if closeErr := server.Close(); closeErr != nil {
					log.Error("error closing API server", "error", closeErr)
				}
			}()
			log.Info("API listening", "address", server.Addr())
		}
	}

	// Voice
	if cfg.Voice.Enabled {
		term.SetSpeaker(voice.NewEspeakSpeaker(cfg.Voice.Speaker.Command, cfg.Voice.Speaker.Args))
	}
	if cfg.Voice.Recognizer.Endpoint != "" {
		term.SetListener(voice.NewRecognizer(
			voice.NewCommandRecorder(cfg.Voice.Recognizer.RecordCommand),
			voice.NewHTTPTranscriber(cfg.Voice.Recognizer),
		))
	}

	// Automation loop
	if loop == nil {
		loop = automation.NewLoop(mode, registry, gateway, notifier, book, automation.OptionsFromConfig(cfg.Automation))
	}
	loop.SetLogger(log.Component("automation"))
	loop.SetAnnouncer(announcers)

	term.Greet()

	loopCtx, stopLoop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(loopCtx)
	}()
	term.Announce("Background monitoring initiated. I'll keep watch.")

	// The console read cannot be interrupted, so a signal abandons it.
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx) }()

	select {
	case err = <-done:
		if err != nil {
			log.Error("console stopped", "error", err)
		}
	case <-ctx.Done():
		term.Interrupted()
	}

	stopLoop()
	wg.Wait()

	log.Info("controller stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MUKHTAR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MUKHTAR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// announcerSet sends each loop announcement to every member.
type announcerSet []automation.Announcer

// Announce implements automation.Announcer.
func (s announcerSet) Announce(message string) {
	for _, a := range s {
		a.Announce(message)
	}
}
