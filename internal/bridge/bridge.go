package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/mukhtar/internal/assistant"
	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/infrastructure/mqtt"
	"github.com/nerrad567/mukhtar/internal/sensor"
)

// commandTimeout bounds one MQTT-originated command, relay calls included.
const commandTimeout = 30 * time.Second

// Logger defines the logging interface used by the Bridge.
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

// Broker is the MQTT client surface the bridge uses.
type Broker interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Topics() mqtt.Topics
	QoS() byte
}

// Handler executes free-text commands.
type Handler interface {
	Handle(ctx context.Context, text string) assistant.Response
}

// Recorder is told about every command handled from MQTT.
type Recorder interface {
	CommandHandled(ctx context.Context, source, text, action string, ok bool)
}

// Notifier sends alert messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Payloads.
type (
	deviceState struct {
		Device string    `json:"device"`
		On     bool      `json:"on"`
		State  string    `json:"state"`
		At     time.Time `json:"at"`
	}

	sensorReading struct {
		Kind      string    `json:"kind"`
		Value     float64   `json:"value"`
		Raw       float64   `json:"raw"`
		Unit      string    `json:"unit,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	modeState struct {
		Mode string `json:"mode"`
		Auto bool   `json:"auto"`
	}

	alertEvent struct {
		Message   string    `json:"message"`
		Delivered bool      `json:"delivered"`
		Timestamp time.Time `json:"timestamp"`
	}

	commandRequest struct {
		Text string `json:"text"`
	}
)

// Bridge mirrors controller events onto MQTT and accepts commands from it.
// Publishing is best effort: a broker outage never blocks the controller.
type Bridge struct {
	broker   Broker
	topics   mqtt.Topics
	handler  Handler
	recorder Recorder
	logger   Logger
	now      func() time.Time
}

// New creates a bridge. handler may be nil to disable command input.
func New(broker Broker, handler Handler) *Bridge {
	return &Bridge{
		broker:  broker,
		topics:  broker.Topics(),
		handler: handler,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// SetRecorder sets where handled commands are recorded.
func (b *Bridge) SetRecorder(r Recorder) {
	b.recorder = r
}

// Start subscribes to the command topic. Handlers run until the broker
// connection is closed; ctx is the parent of every command context.
func (b *Bridge) Start(ctx context.Context) error {
	if b.handler == nil {
		return nil
	}
	topic := b.topics.Command()
	if err := b.broker.Subscribe(topic, b.broker.QoS(), b.commandHandler(ctx)); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	b.logger.Info("mqtt command input ready", "topic", topic)
	return nil
}

// commandHandler accepts either a JSON {"text": "..."} body or plain text.
func (b *Bridge) commandHandler(parent context.Context) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		text := strings.TrimSpace(string(payload))
		var req commandRequest
		if json.Unmarshal(payload, &req) == nil && req.Text != "" {
			text = strings.TrimSpace(req.Text)
		}
		if text == "" {
			return nil
		}

		ctx, cancel := context.WithTimeout(parent, commandTimeout)
		defer cancel()

		resp := b.handler.Handle(ctx, text)
		if b.recorder != nil {
			b.recorder.CommandHandled(ctx, "mqtt", text, resp.Intent.Action.String(), resp.OK())
		}

		body, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encoding reply: %w", err)
		}
		return b.broker.PublishEvent(b.topics.Reply(), body)
	}
}

// DeviceChanged publishes the retained device state. It implements
// device.Observer.
func (b *Bridge) DeviceChanged(_ context.Context, c device.Change) {
	state := "off"
	if c.On {
		state = "on"
	}
	b.publish(b.topics.DeviceState(c.Device), true, deviceState{Device: c.Device, On: c.On, State: state, At: c.At})
}

// SensorRead publishes the retained latest reading. It implements
// sensor.Observer.
func (b *Bridge) SensorRead(_ context.Context, r sensor.Reading) {
	b.publish(b.topics.Sensor(string(r.Kind)), true, sensorReading{
		Kind:      string(r.Kind),
		Value:     r.Value,
		Raw:       r.Raw,
		Unit:      r.Kind.Unit(),
		Timestamp: r.Timestamp,
	})
}

// ModeChanged publishes the retained automation mode.
func (b *Bridge) ModeChanged(auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	b.publish(b.topics.Mode(), true, modeState{Mode: mode, Auto: auto})
}

// PublishAlerts wraps next so that every alert is also published.
// The wrapped notifier's result is returned unchanged.
func (b *Bridge) PublishAlerts(next Notifier) Notifier {
	return alertPublisher{next: next, bridge: b}
}

type alertPublisher struct {
	next   Notifier
	bridge *Bridge
}

func (a alertPublisher) Notify(ctx context.Context, message string) error {
	err := a.next.Notify(ctx, message)
	a.bridge.publish(a.bridge.topics.Alert(), false, alertEvent{
		Message:   message,
		Delivered: err == nil,
		Timestamp: a.bridge.now().UTC(),
	})
	return err
}

func (b *Bridge) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("mqtt payload encoding failed", "topic", topic, "error", err)
		return
	}
	if retained {
		err = b.broker.PublishRetained(topic, payload)
	} else {
		err = b.broker.PublishEvent(topic, payload)
	}
	if err != nil {
		b.logger.Debug("mqtt publish skipped", "topic", topic, "error", err)
	}
}

var (
	_ device.Observer = (*Bridge)(nil)
	_ sensor.Observer = (*Bridge)(nil)
)
