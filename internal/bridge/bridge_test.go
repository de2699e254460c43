package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/mukhtar/internal/assistant"
	"github.com/nerrad567/mukhtar/internal/command"
	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/infrastructure/mqtt"
	"github.com/nerrad567/mukhtar/internal/sensor"
)

type message struct {
	topic    string
	payload  []byte
	retained bool
}

type mockBroker struct {
	mu         sync.Mutex
	messages   []message
	handlers   map[string]mqtt.MessageHandler
	publishErr error
	subErr     error
}

func newMockBroker() *mockBroker {
	return &mockBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockBroker) record(topic string, payload []byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.messages = append(m.messages, message{topic: topic, payload: payload, retained: retained})
	return nil
}

func (m *mockBroker) PublishRetained(topic string, payload []byte) error {
	return m.record(topic, payload, true)
}

func (m *mockBroker) PublishEvent(topic string, payload []byte) error {
	return m.record(topic, payload, false)
}

func (m *mockBroker) Subscribe(topic string, _ byte, h mqtt.MessageHandler) error {
	if m.subErr != nil {
		return m.subErr
	}
	m.handlers[topic] = h
	return nil
}

func (m *mockBroker) Topics() mqtt.Topics { return mqtt.NewTopics("mukhtar") }
func (m *mockBroker) QoS() byte           { return 1 }

func (m *mockBroker) last(t *testing.T) message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		t.Fatal("nothing published")
	}
	return m.messages[len(m.messages)-1]
}

type stubHandler struct {
	texts []string
}

func (s *stubHandler) Handle(_ context.Context, text string) assistant.Response {
	s.texts = append(s.texts, text)
	return assistant.Response{
		Intent:   command.Intent{Action: command.TurnOn, Device: "fan", Text: text},
		Messages: []string{"Cooling systems engaged."},
	}
}

type stubRecorder struct {
	source, text, action string
	ok                   bool
}

func (s *stubRecorder) CommandHandled(_ context.Context, source, text, action string, ok bool) {
	s.source, s.text, s.action, s.ok = source, text, action, ok
}

func TestDeviceChanged(t *testing.T) {
	broker := newMockBroker()
	b := New(broker, nil)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.DeviceChanged(context.Background(), device.Change{Device: "fan", On: true, At: at})

	msg := broker.last(t)
	if msg.topic != "mukhtar/state/fan" || !msg.retained {
		t.Errorf("published %+v", msg)
	}
	var got deviceState
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if !got.On || got.State != "on" || !got.At.Equal(at) {
		t.Errorf("state = %+v", got)
	}
}

func TestSensorRead(t *testing.T) {
	broker := newMockBroker()
	b := New(broker, nil)

	b.SensorRead(context.Background(), sensor.Reading{Kind: sensor.Temperature, Raw: 312, Value: 31.2})

	msg := broker.last(t)
	if msg.topic != "mukhtar/sensor/temperature" || !msg.retained {
		t.Errorf("published %+v", msg)
	}
	var got sensorReading
	_ = json.Unmarshal(msg.payload, &got)
	if got.Value != 31.2 || got.Unit != "°C" {
		t.Errorf("reading = %+v", got)
	}
}

func TestModeChanged(t *testing.T) {
	broker := newMockBroker()
	New(broker, nil).ModeChanged(false)

	var got modeState
	msg := broker.last(t)
	_ = json.Unmarshal(msg.payload, &got)
	if msg.topic != "mukhtar/mode" || got.Mode != "manual" || got.Auto {
		t.Errorf("mode message = %s %+v", msg.topic, got)
	}
}

type stubNotifier struct{ err error }

func (s stubNotifier) Notify(context.Context, string) error { return s.err }

func TestPublishAlerts(t *testing.T) {
	broker := newMockBroker()
	b := New(broker, nil)
	sendErr := errors.New("sms down")

	err := b.PublishAlerts(stubNotifier{err: sendErr}).Notify(context.Background(), "gas 520")
	if !errors.Is(err, sendErr) {
		t.Errorf("Notify() error = %v, want wrapped result", err)
	}

	msg := broker.last(t)
	var got alertEvent
	_ = json.Unmarshal(msg.payload, &got)
	if msg.topic != "mukhtar/alert" || msg.retained || got.Message != "gas 520" || got.Delivered {
		t.Errorf("alert = %s %+v", msg.topic, got)
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	broker := newMockBroker()
	broker.publishErr = mqtt.ErrNotConnected
	b := New(broker, nil)

	b.DeviceChanged(context.Background(), device.Change{Device: "fan"})
	if err := b.PublishAlerts(stubNotifier{}).Notify(context.Background(), "x"); err != nil {
		t.Errorf("Notify() error = %v; broker outage must not fail alerts", err)
	}
}

func TestCommandInput(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantText string
	}{
		{name: "plain text", payload: "  turn on the fan ", wantText: "turn on the fan"},
		{name: "json body", payload: `{"text":"turn on the fan"}`, wantText: "turn on the fan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := newMockBroker()
			handler := &stubHandler{}
			rec := &stubRecorder{}
			b := New(broker, handler)
			b.SetRecorder(rec)

			if err := b.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			h := broker.handlers["mukhtar/command"]
			if h == nil {
				t.Fatal("command topic not subscribed")
			}
			if err := h("mukhtar/command", []byte(tt.payload)); err != nil {
				t.Fatalf("handler error = %v", err)
			}

			if len(handler.texts) != 1 || handler.texts[0] != tt.wantText {
				t.Errorf("handled %q", handler.texts)
			}
			reply := broker.last(t)
			if reply.topic != "mukhtar/reply" {
				t.Errorf("reply topic = %q", reply.topic)
			}
			var body struct {
				Intent   struct{ Action string } `json:"intent"`
				Messages []string                `json:"messages"`
			}
			if err := json.Unmarshal(reply.payload, &body); err != nil {
				t.Fatalf("reply: %v", err)
			}
			if body.Intent.Action != "turn_on" || len(body.Messages) != 1 {
				t.Errorf("reply = %s", reply.payload)
			}
			if rec.source != "mqtt" || rec.action != "turn_on" || !rec.ok {
				t.Errorf("recorded %+v", rec)
			}
		})
	}
}

func TestCommandInput_EmptyIgnored(t *testing.T) {
	broker := newMockBroker()
	handler := &stubHandler{}
	b := New(broker, handler)
	_ = b.Start(context.Background())

	_ = broker.handlers["mukhtar/command"]("mukhtar/command", []byte("   "))
	if len(handler.texts) != 0 {
		t.Errorf("handled %q for empty payload", handler.texts)
	}
}

func TestStart(t *testing.T) {
	broker := newMockBroker()
	if err := New(broker, nil).Start(context.Background()); err != nil {
		t.Errorf("Start() without handler = %v", err)
	}
	if len(broker.handlers) != 0 {
		t.Error("subscribed without a handler")
	}

	broker.subErr = mqtt.ErrNotConnected
	if err := New(broker, &stubHandler{}).Start(context.Background()); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
}
