package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
)

// fakeToken completes immediately with err.
type fakeToken struct{ err error }

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho is an in-memory pahomqtt.Client.
type fakePaho struct {
	mu           sync.Mutex
	connected    bool
	published    []published
	handlers     map[string]pahomqtt.MessageHandler
	publishErr   error
	subscribeErr error
	disconnected bool
}

func newFakePaho() *fakePaho {
	return &fakePaho{connected: true, handlers: make(map[string]pahomqtt.MessageHandler)}
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
func (f *fakePaho) IsConnectionOpen() bool  { return f.IsConnected() }
func (f *fakePaho) Connect() pahomqtt.Token { return fakeToken{} }
func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	f.connected = false
	f.disconnected = true
	f.mu.Unlock()
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return fakeToken{err: f.publishErr}
	}
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	f.published = append(f.published, published{topic: topic, qos: qos, retained: retained, payload: b})
	return fakeToken{}
}

func (f *fakePaho) Subscribe(topic string, _ byte, cb pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return fakeToken{err: f.subscribeErr}
	}
	f.handlers[topic] = cb
	return fakeToken{}
}

func (f *fakePaho) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return fakeToken{}
}
func (f *fakePaho) Unsubscribe(...string) pahomqtt.Token        { return fakeToken{} }
func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler)    {}
func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader { return pahomqtt.ClientOptionsReader{} }

func (f *fakePaho) deliver(topic string, payload []byte) {
	f.mu.Lock()
	cb := f.handlers[topic]
	f.mu.Unlock()
	cb(f, fakeMessage{topic: topic, payload: payload})
}

func (f *fakePaho) last() published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[len(f.published)-1]
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 1 }
func (fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string   { return m.topic }
func (fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (fakeMessage) Ack()              {}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker:      config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: "mukhtar-test"},
		QoS:         1,
		TopicPrefix: "mukhtar",
		Reconnect:   config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
	}
}

func newTestClient(t *testing.T) (*Client, *fakePaho) {
	t.Helper()
	fake := newFakePaho()
	c := newClient(fake, NewTopics("mukhtar"), testConfig())
	c.connected = true
	return c, fake
}

func TestPublish(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.PublishRetained("mukhtar/state/fan", []byte(`{"on":true}`)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}
	got := fake.last()
	if got.topic != "mukhtar/state/fan" || !got.retained || got.qos != 1 {
		t.Errorf("published = %+v", got)
	}

	if err := c.PublishEvent("mukhtar/alert", []byte("gas")); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}
	if fake.last().retained {
		t.Error("PublishEvent() should not retain")
	}
}

func TestPublish_Validation(t *testing.T) {
	c, fake := newTestClient(t)

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		wantErr error
	}{
		{"empty topic", "", 0, nil, ErrInvalidTopic},
		{"invalid qos", "mukhtar/x", 3, nil, ErrInvalidQoS},
		{"payload too large", "mukhtar/x", 0, make([]byte, maxPayloadSize+1), ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	fake.publishErr = errors.New("broker said no")
	if err := c.Publish("mukhtar/x", nil, 0, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublish_Disconnected(t *testing.T) {
	c, fake := newTestClient(t)
	fake.connected = false

	if err := c.PublishEvent("mukhtar/alert", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe(t *testing.T) {
	c, fake := newTestClient(t)

	received := make(chan string, 1)
	err := c.Subscribe("mukhtar/command", 1, func(topic string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !c.HasSubscription("mukhtar/command") || c.SubscriptionCount() != 1 {
		t.Error("subscription not tracked")
	}

	fake.deliver("mukhtar/command", []byte("fan on"))
	if got := <-received; got != "fan on" {
		t.Errorf("handler got %q", got)
	}
}

func TestSubscribe_Failures(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.Subscribe("mukhtar/command", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}

	fake.subscribeErr = errors.New("not authorised")
	err := c.Subscribe("mukhtar/command", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Error("failed subscription still tracked")
	}
}

func TestWrapHandler_RecoversAndLogs(t *testing.T) {
	c, fake := newTestClient(t)
	logger := &mockLogger{}
	c.SetLogger(logger)

	_ = c.Subscribe("mukhtar/panic", 0, func(string, []byte) error { panic("boom") })
	_ = c.Subscribe("mukhtar/fail", 0, func(string, []byte) error { return errors.New("bad") })

	fake.deliver("mukhtar/panic", nil)
	fake.deliver("mukhtar/fail", nil)

	if len(logger.errors) != 1 || len(logger.warns) != 1 {
		t.Errorf("errors = %v, warns = %v", logger.errors, logger.warns)
	}
}

func TestReconnect_RestoresAndAnnounces(t *testing.T) {
	c, fake := newTestClient(t)
	_ = c.Subscribe("mukhtar/command", 1, func(string, []byte) error { return nil })

	var connects, drops int
	c.SetOnConnect(func() { connects++ })
	c.SetOnDisconnect(func(error) { drops++ })

	c.handleDisconnect(errors.New("EOF"))
	if c.IsConnected() {
		t.Error("IsConnected() = true after connection loss")
	}

	fake.handlers = make(map[string]pahomqtt.MessageHandler)
	c.handleConnect()

	if _, ok := fake.handlers["mukhtar/command"]; !ok {
		t.Error("subscription not restored")
	}
	got := fake.last()
	if got.topic != "mukhtar/system/status" || !got.retained {
		t.Errorf("status publish = %+v", got)
	}
	var status statusPayload
	if err := json.Unmarshal(got.payload, &status); err != nil || status.Status != "online" {
		t.Errorf("status payload = %s (%v)", got.payload, err)
	}
	if connects != 1 || drops != 1 {
		t.Errorf("callbacks connect=%d disconnect=%d", connects, drops)
	}
}

func TestClose(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.disconnected {
		t.Error("paho Disconnect not called")
	}
	var status statusPayload
	_ = json.Unmarshal(fake.last().payload, &status)
	if status.Status != "offline" || status.Reason != "graceful_shutdown" {
		t.Errorf("offline status = %+v", status)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 1 // nothing listens here
	cfg.Reconnect = config.MQTTReconnectConfig{}

	// SetConnectRetry keeps paho retrying in the background, so the
	// initial connect only fails by timing out.
	if testing.Short() {
		t.Skip("waits for connect timeout")
	}
	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestTopics(t *testing.T) {
	topics := NewTopics("/home/mukhtar/")
	tests := []struct {
		got, want string
	}{
		{topics.DeviceState("fan"), "home/mukhtar/state/fan"},
		{topics.Sensor("gas"), "home/mukhtar/sensor/gas"},
		{topics.Alert(), "home/mukhtar/alert"},
		{topics.Mode(), "home/mukhtar/mode"},
		{topics.Command(), "home/mukhtar/command"},
		{topics.Reply(), "home/mukhtar/reply"},
		{topics.SystemStatus(), "home/mukhtar/system/status"},
		{topics.AllDeviceStates(), "home/mukhtar/state/+"},
		{topics.All(), "home/mukhtar/#"},
		{NewTopics("").Alert(), "mukhtar/alert"},
		{Topics{}.Command(), "mukhtar/command"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}
