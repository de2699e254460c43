package device

import (
	"context"
	"time"
)

// Device is a named actuator wired to one relay output pin.
// Devices are created from configuration and never destroyed.
type Device struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`

	// On is the last acknowledged commanded state. There is no read-back,
	// so it can drift from the physical state after a manual override.
	On bool `json:"on"`

	// UpdatedAt is nil until the first acknowledged actuation.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// StateLabel returns "ON" or "OFF".
func (d Device) StateLabel() string {
	if d.On {
		return "ON"
	}
	return "OFF"
}

// Change describes an acknowledged actuation.
type Change struct {
	Device string    `json:"device"`
	On     bool      `json:"on"`
	At     time.Time `json:"at"`
}

// Actuator drives relay output pins.
type Actuator interface {
	DigitalWrite(ctx context.Context, pin string, high bool) error
}

// Observer is notified after every acknowledged actuation.
// Observers run synchronously on the actuating goroutine and must not
// call back into TurnOn or TurnOff.
type Observer interface {
	DeviceChanged(ctx context.Context, change Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, change Change)

// DeviceChanged calls f.
func (f ObserverFunc) DeviceChanged(ctx context.Context, change Change) {
	f(ctx, change)
}

// Stats contains registry statistics.
type Stats struct {
	TotalDevices int `json:"total_devices"`
	On           int `json:"on"`
	Off          int `json:"off"`
}
