package sensor

import (
	"context"
	"time"
)

// Kind identifies an environmental sensor.
type Kind string

// Sensor kinds.
const (
	Temperature Kind = "temperature"
	Humidity    Kind = "humidity"
	Light       Kind = "light"
	Gas         Kind = "gas"
)

// AllKinds lists every kind in reporting order.
var AllKinds = []Kind{Temperature, Humidity, Light, Gas}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Unit returns the display unit for normalised values.
func (k Kind) Unit() string {
	switch k {
	case Temperature:
		return "°C"
	case Light:
		return "%"
	default:
		return ""
	}
}

// Reading is one sample from the relay.
type Reading struct {
	Kind      Kind      `json:"kind"`
	Raw       float64   `json:"raw"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Reader fetches a raw analog value from an input line.
type Reader interface {
	AnalogRead(ctx context.Context, pin string) (float64, error)
}

// Observer is notified after every successful reading.
type Observer interface {
	SensorRead(ctx context.Context, reading Reading)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, reading Reading)

// SensorRead calls f.
func (f ObserverFunc) SensorRead(ctx context.Context, reading Reading) {
	f(ctx, reading)
}
