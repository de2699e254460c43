package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/sensor"
)

// Measurement names.
const (
	MeasurementSensor = "sensor_readings"
	MeasurementDevice = "device_state"
	MeasurementAlert  = "alerts"
)

// SensorRead records a reading. It implements sensor.Observer.
func (c *Client) SensorRead(_ context.Context, r sensor.Reading) {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	c.WritePoint(MeasurementSensor,
		map[string]string{"kind": string(r.Kind)},
		map[string]any{"value": r.Value, "raw": r.Raw},
		ts,
	)
}

// DeviceChanged records an actuation as 1 (on) or 0 (off) so that
// state can be graphed as a step function. It implements device.Observer.
func (c *Client) DeviceChanged(_ context.Context, ch device.Change) {
	state := 0
	if ch.On {
		state = 1
	}
	ts := ch.At
	if ts.IsZero() {
		ts = time.Now()
	}
	c.WritePoint(MeasurementDevice,
		map[string]string{"device": ch.Device},
		map[string]any{"on": state},
		ts,
	)
}

// WriteAlert records a critical alert attempt.
func (c *Client) WriteAlert(message string, delivered bool) {
	c.WritePoint(MeasurementAlert, nil,
		map[string]any{"message": message, "delivered": delivered},
		time.Now(),
	)
}

// WritePoint queues one point. It is dropped silently after Close.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}

var (
	_ sensor.Observer = (*Client)(nil)
	_ device.Observer = (*Client)(nil)
)

// Notifier sends alert messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type alertRecorder struct {
	next   Notifier
	client *Client
}

// RecordAlerts wraps next so that every alert attempt is also written.
func (c *Client) RecordAlerts(next Notifier) Notifier {
	return alertRecorder{next: next, client: c}
}

func (a alertRecorder) Notify(ctx context.Context, message string) error {
	err := a.next.Notify(ctx, message)
	a.client.WriteAlert(message, err == nil)
	return err
}
