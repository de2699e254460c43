package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/mukhtar/internal/automation"
	"github.com/nerrad567/mukhtar/internal/command"
	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/persona"
	"github.com/nerrad567/mukhtar/internal/sensor"
	"github.com/nerrad567/mukhtar/internal/status"
)

// Logger defines the logging interface used by the Dispatcher.
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

// Devices is the slice of the device registry the dispatcher needs.
type Devices interface {
	TurnOn(ctx context.Context, name string) error
	TurnOff(ctx context.Context, name string) error
}

// Sensors is the slice of the sensor gateway the dispatcher needs.
type Sensors interface {
	Read(ctx context.Context, kind sensor.Kind) (sensor.Reading, error)
}

// Reporter produces status snapshots.
type Reporter interface {
	Report(ctx context.Context) status.Snapshot
}

// Interpreter classifies text.
type Interpreter interface {
	Interpret(text string) command.Intent
}

// ModeSwitch is the automation mode.
type ModeSwitch interface {
	Set(auto bool) bool
}

// Options holds the thresholds used to phrase sensor replies.
type Options struct {
	TemperatureHigh float64
	GasAlert        float64
}

// Response is the outcome of one command. Messages are printed or spoken
// in order; Report is set for status requests.
type Response struct {
	Intent   command.Intent   `json:"intent"`
	Messages []string         `json:"messages"`
	Report   *status.Snapshot `json:"report,omitempty"`

	// Err is the underlying failure, already phrased in Messages.
	Err error `json:"-"`
}

// OK reports whether the command succeeded.
func (r Response) OK() bool {
	return r.Err == nil && r.Intent.Action != command.Unknown
}

// Dispatcher executes intents against the registry, the gateway, the
// reporter and the automation mode. Every failure becomes a user-facing
// message; nothing escapes as a panic or a process exit.
//
// Thread Safety: safe for concurrent use if its collaborators are.
type Dispatcher struct {
	interpreter Interpreter
	devices     Devices
	sensors     Sensors
	reporter    Reporter
	mode        ModeSwitch
	book        *persona.Book
	opts        Options
	logger      Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(interpreter Interpreter, devices Devices, sensors Sensors, reporter Reporter, mode ModeSwitch, book *persona.Book, opts Options) *Dispatcher {
	if book == nil {
		book = persona.NewBook(nil, nil)
	}
	return &Dispatcher{
		interpreter: interpreter,
		devices:     devices,
		sensors:     sensors,
		reporter:    reporter,
		mode:        mode,
		book:        book,
		opts:        opts,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Interpret classifies text without executing anything.
func (d *Dispatcher) Interpret(text string) command.Intent {
	intent := d.interpreter.Interpret(text)
	d.logger.Info("processing command", "text", intent.Text, "action", intent.Action.String())
	return intent
}

// Handle interprets text and executes the resulting intent.
func (d *Dispatcher) Handle(ctx context.Context, text string) Response {
	return d.Execute(ctx, d.Interpret(text))
}

// Execute carries out an already classified intent.
func (d *Dispatcher) Execute(ctx context.Context, intent command.Intent) Response {
	switch intent.Action {
	case command.TurnOn, command.TurnOff:
		return d.actuate(ctx, intent)
	case command.QuerySensor:
		return d.query(ctx, intent)
	case command.StatusReport:
		snap := d.reporter.Report(ctx)
		return Response{Intent: intent, Messages: snap.Commentary(), Report: &snap}
	case command.SetAutomation:
		d.mode.Set(intent.Enable)
		msg := "Automation disabled. Manual control engaged."
		if intent.Enable {
			msg = "Automation enabled. I'll handle things from here."
		}
		return Response{Intent: intent, Messages: []string{msg}}
	default:
		return Response{Intent: intent, Messages: []string{d.book.Fallback()}}
	}
}

func (d *Dispatcher) actuate(ctx context.Context, intent command.Intent) Response {
	on := intent.Action == command.TurnOn
	name := intent.Device

	var err error
	if on {
		err = d.devices.TurnOn(ctx, name)
	} else {
		err = d.devices.TurnOff(ctx, name)
	}

	resp := Response{Intent: intent, Err: err}
	switch {
	case err == nil:
		verb := "Turn off"
		if on {
			verb = "Turn on"
		}
		fallback := fmt.Sprintf("%s %s completed successfully.", verb, name)
		resp.Messages = []string{d.book.LineOr(persona.DeviceCategory(name, on), fallback)}
	case errors.Is(err, device.ErrUnknownDevice):
		if on {
			resp.Messages = []string{fmt.Sprintf("Unknown device '%s'. My database doesn't include fictional appliances.", name)}
		} else {
			resp.Messages = []string{fmt.Sprintf("Device '%s' not found in my arsenal.", name)}
		}
	case errors.Is(err, device.ErrActuationFailed):
		if on {
			resp.Messages = []string{fmt.Sprintf("Communication error with %s. Network gremlins detected.", name)}
		} else {
			resp.Messages = []string{fmt.Sprintf("Communication failure with %s.", name)}
		}
	default:
		resp.Messages = []string{fmt.Sprintf("Device control malfunction. Error: %v", err)}
	}
	if err != nil {
		d.logger.Warn("command failed", "device", name, "on", on, "error", err)
	}
	return resp
}

func (d *Dispatcher) query(ctx context.Context, intent command.Intent) Response {
	kind := intent.Sensor
	r, err := d.sensors.Read(ctx, kind)
	if err != nil {
		d.logger.Warn("sensor query failed", "sensor", kind, "error", err)
		return Response{
			Intent:   intent,
			Err:      err,
			Messages: []string{fmt.Sprintf("Sensor reading error for %s. The relay is not answering.", kind)},
		}
	}

	var msg string
	switch kind {
	case sensor.Temperature:
		if r.Value > d.opts.TemperatureHigh {
			msg = fmt.Sprintf("Current temperature is %.1f°C. %s", r.Value,
				d.book.LineOr(persona.CategoryTemperatureHigh, "Cooling is advised."))
		} else {
			msg = fmt.Sprintf("Current temperature is %.1f°C. Quite comfortable, if you ask me.", r.Value)
		}
	case sensor.Light:
		msg = fmt.Sprintf("Light intensity at %.1f%%. Adequate for human activities.", r.Value)
	case sensor.Gas:
		if r.Value > d.opts.GasAlert {
			msg = d.book.LineOr(persona.CategoryGasAlert, "Gas levels elevated.")
		} else {
			msg = fmt.Sprintf("Air quality nominal (%s). Breathe freely, Sir.", automation.FormatValue(r.Value))
		}
	case sensor.Humidity:
		msg = fmt.Sprintf("Humidity at %s.", automation.FormatValue(r.Value))
	}
	return Response{Intent: intent, Messages: []string{msg}}
}
