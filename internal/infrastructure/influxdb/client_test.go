package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
	"github.com/nerrad567/mukhtar/internal/sensor"
)

// fakeInflux answers pings and records line protocol written to it.
type fakeInflux struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/ping"):
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(r.URL.Path, "/write"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		for _, l := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			if l != "" {
				f.lines = append(f.lines, l)
			}
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.lines, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "home",
		Bucket:        "mukhtar",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func connectFake(t *testing.T) (*Client, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // test cleanup
	return c, fake
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false
	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := Connect(testConfig(url)); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestObservers_WritePoints(t *testing.T) {
	c, fake := connectFake(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.SensorRead(ctx, sensor.Reading{Kind: sensor.Gas, Raw: 520, Value: 520, Timestamp: at})
	c.DeviceChanged(ctx, device.Change{Device: "exhaust", On: true, At: at})
	c.Flush()

	got := fake.written()
	for _, want := range []string{
		"sensor_readings,kind=gas",
		"value=520",
		"device_state,device=exhaust on=1i",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("written %q missing %q", got, want)
		}
	}
}

type stubNotifier struct{ err error }

func (s stubNotifier) Notify(context.Context, string) error { return s.err }

func TestRecordAlerts(t *testing.T) {
	c, fake := connectFake(t)
	sendErr := errors.New("no signal")

	if err := c.RecordAlerts(stubNotifier{err: sendErr}).Notify(context.Background(), "gas"); !errors.Is(err, sendErr) {
		t.Errorf("Notify() error = %v", err)
	}
	c.Flush()

	if got := fake.written(); !strings.Contains(got, "alerts delivered=false") {
		t.Errorf("written %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	c, _ := connectFake(t)

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	_ = c.Close()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}

func TestWriteAfterCloseIsDropped(t *testing.T) {
	c, fake := connectFake(t)
	_ = c.Close()

	c.DeviceChanged(context.Background(), device.Change{Device: "fan", On: true})
	c.Flush()
	if got := fake.written(); got != "" {
		t.Errorf("written after Close: %q", got)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}
