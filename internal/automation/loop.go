package automation

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
	"github.com/nerrad567/mukhtar/internal/persona"
	"github.com/nerrad567/mukhtar/internal/sensor"
)

// Logger defines the logging interface used by the Loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Devices is the slice of the device registry the loop needs.
type Devices interface {
	TurnOn(ctx context.Context, name string) error
	TurnOff(ctx context.Context, name string) error
	StateOf(name string) bool
}

// Sensors is the slice of the sensor gateway the loop needs.
type Sensors interface {
	Read(ctx context.Context, kind sensor.Kind) (sensor.Reading, error)
}

// Notifier sends critical alerts.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Announcer receives operator-facing lines produced by the loop.
type Announcer interface {
	Announce(message string)
}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(string) {}

// Options configures the loop.
type Options struct {
	Interval      time.Duration
	Backoff       time.Duration
	AlertCooldown time.Duration

	Rules      config.AutomationRulesConfig
	Thresholds config.ThresholdsConfig

	FanDevice     string
	LightDevice   string
	ExhaustDevice string
}

// OptionsFromConfig converts the automation config section.
func OptionsFromConfig(cfg config.AutomationConfig) Options {
	return Options{
		Interval:      cfg.Interval,
		Backoff:       cfg.Backoff,
		AlertCooldown: cfg.AlertCooldown,
		Rules:         cfg.Rules,
		Thresholds:    cfg.Thresholds,
		FanDevice:     cfg.FanDevice,
		LightDevice:   cfg.LightDevice,
		ExhaustDevice: cfg.ExhaustDevice,
	}
}

// Operator-facing lines.
const (
	msgCoolingEngaged      = "Automated cooling protocol engaged."
	msgIlluminationActive  = "Automated illumination protocol active."
	msgAlertTransmitted    = "Emergency alert transmitted. Help is on the way."
	msgAlertFailedTemplate = "SMS transmission failed: %v"
	criticalGasTemplate    = "CRITICAL: Dangerous gas levels detected (%s)! Evacuate immediately!"
)

// Loop is the periodic automation task.
//
// Thread Safety: Tick is serialised internally; Run must be called once.
type Loop struct {
	mode     *Mode
	devices  Devices
	sensors  Sensors
	notifier Notifier
	book     *persona.Book
	opts     Options

	announcer Announcer
	logger    Logger
	now       func() time.Time

	tickMu sync.Mutex // serialises ticks

	statsMu   sync.Mutex // protects the fields below
	lastAlert time.Time
	lastTick  time.Time
	ticks     uint64
	failures  uint64
}

// NewLoop creates an automation loop.
func NewLoop(mode *Mode, devices Devices, sensors Sensors, notifier Notifier, book *persona.Book, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * opts.Interval
	}
	if book == nil {
		book = persona.NewBook(nil, nil)
	}
	return &Loop{
		mode:      mode,
		devices:   devices,
		sensors:   sensors,
		notifier:  notifier,
		book:      book,
		opts:      opts,
		announcer: noopAnnouncer{},
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// SetAnnouncer sets where operator-facing lines go.
func (l *Loop) SetAnnouncer(a Announcer) {
	l.announcer = a
}

// Run ticks immediately and then every Interval until ctx is cancelled.
// After a tick fails with ErrUncaughtAutomation the next wait is Backoff.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("automation loop started",
		"interval", l.opts.Interval,
		"backoff", l.opts.Backoff,
		"alert_cooldown", l.opts.AlertCooldown,
	)
	defer l.logger.Info("automation loop stopped")

	for {
		wait := l.opts.Interval
		if err := l.Tick(ctx); err != nil {
			l.logger.Error("automation tick failed", "error", err, "backoff", l.opts.Backoff)
			l.announcer.Announce(fmt.Sprintf("Monitoring error: %v", err))
			wait = l.opts.Backoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Tick evaluates every enabled rule once. It does nothing in manual mode.
// Rule failures are logged and never abort the remaining rules; only a
// recovered panic is returned, as ErrUncaughtAutomation.
func (l *Loop) Tick(ctx context.Context) (err error) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			l.statsMu.Lock()
			l.failures++
			l.statsMu.Unlock()
			err = fmt.Errorf("%w: %v", ErrUncaughtAutomation, r)
		}
	}()

	if ctx.Err() != nil {
		return nil
	}
	l.statsMu.Lock()
	l.ticks++
	l.lastTick = l.now()
	l.statsMu.Unlock()

	if !l.mode.Auto() {
		l.logger.Debug("automation tick skipped", "mode", "manual")
		return nil
	}

	if l.opts.Rules.TemperatureControl {
		l.temperatureRule(ctx)
	}
	if l.opts.Rules.LightControl {
		l.lightRule(ctx)
	}
	if l.opts.Rules.GasAlert {
		l.gasRule(ctx)
	}
	return nil
}

func (l *Loop) read(ctx context.Context, kind sensor.Kind) (float64, bool) {
	r, err := l.sensors.Read(ctx, kind)
	if err != nil {
		l.logger.Warn("rule skipped", "sensor", kind, "error", err)
		return 0, false
	}
	return r.Value, true
}

func (l *Loop) temperatureRule(ctx context.Context) {
	temp, ok := l.read(ctx, sensor.Temperature)
	if !ok {
		return
	}
	th := l.opts.Thresholds.Temperature
	fan := l.opts.FanDevice
	on := l.devices.StateOf(fan)

	switch {
	case temp > th.FanOn && !on:
		if l.switchDevice(ctx, fan, true, temp) {
			l.announcer.Announce(msgCoolingEngaged)
		}
	case temp < th.FanOff && on:
		if l.switchDevice(ctx, fan, false, temp) {
			l.announcer.Announce(l.book.LineOr(persona.DeviceCategory(fan, false), fan+" off."))
		}
	}
}

func (l *Loop) lightRule(ctx context.Context) {
	level, ok := l.read(ctx, sensor.Light)
	if !ok {
		return
	}
	th := l.opts.Thresholds.Light
	light := l.opts.LightDevice
	on := l.devices.StateOf(light)

	switch {
	case level < th.LightOn && !on:
		if l.switchDevice(ctx, light, true, level) {
			l.announcer.Announce(msgIlluminationActive)
		}
	case level > th.LightOff && on:
		if l.switchDevice(ctx, light, false, level) {
			l.announcer.Announce(l.book.LineOr(persona.DeviceCategory(light, false), light+" off."))
		}
	}
}

func (l *Loop) gasRule(ctx context.Context) {
	gas, ok := l.read(ctx, sensor.Gas)
	if !ok {
		return
	}
	th := l.opts.Thresholds.Gas
	exhaust := l.opts.ExhaustDevice

	switch {
	case gas > th.Alert:
		if !l.devices.StateOf(exhaust) {
			if l.switchDevice(ctx, exhaust, true, gas) {
				l.announcer.Announce(l.book.LineOr(persona.CategoryGasAlert, "Gas levels elevated."))
			}
		}
		if gas > th.Critical {
			l.criticalAlert(ctx, gas)
		}
	case gas < th.Clear && l.devices.StateOf(exhaust):
		l.switchDevice(ctx, exhaust, false, gas)
	}
}

// criticalAlert notifies unless a notification went out within the cooldown.
// A failed notification does not start the cooldown.
func (l *Loop) criticalAlert(ctx context.Context, gas float64) {
	now := l.now()
	l.statsMu.Lock()
	last := l.lastAlert
	l.statsMu.Unlock()
	if cd := l.opts.AlertCooldown; cd > 0 && !last.IsZero() && now.Sub(last) < cd {
		l.logger.Debug("critical alert suppressed", "gas", gas, "last_alert", last)
		return
	}

	msg := fmt.Sprintf(criticalGasTemplate, FormatValue(gas))
	if err := l.notifier.Notify(ctx, msg); err != nil {
		l.logger.Error("critical alert failed", "gas", gas, "error", err)
		l.announcer.Announce(fmt.Sprintf(msgAlertFailedTemplate, err))
		return
	}
	l.statsMu.Lock()
	l.lastAlert = now
	l.statsMu.Unlock()
	l.logger.Warn("critical alert sent", "gas", gas)
	l.announcer.Announce(msgAlertTransmitted)
}

func (l *Loop) switchDevice(ctx context.Context, name string, on bool, value float64) bool {
	var err error
	if on {
		err = l.devices.TurnOn(ctx, name)
	} else {
		err = l.devices.TurnOff(ctx, name)
	}
	if err != nil {
		l.logger.Warn("automation actuation failed", "device", name, "on", on, "value", value, "error", err)
		return false
	}
	l.logger.Info("automation actuated", "device", name, "on", on, "value", value)
	return true
}

// Stats describes loop activity.
type Stats struct {
	Ticks     uint64    `json:"ticks"`
	Failures  uint64    `json:"failures"`
	LastTick  time.Time `json:"last_tick"`
	LastAlert time.Time `json:"last_alert"`
}

// Stats returns loop counters.
func (l *Loop) Stats() Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return Stats{
		Ticks:     l.ticks,
		Failures:  l.failures,
		LastTick:  l.lastTick,
		LastAlert: l.lastAlert,
	}
}

// FormatValue renders a sensor value without a trailing ".0".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
