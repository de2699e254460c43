package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the single owner of device state.
//
// Actuations of the same device are serialised by a per-device lock so the
// relay never sees interleaved commands for one pin. The state table is
// guarded separately so reads never wait on a slow relay call.
//
// All public methods are thread-safe.
type Registry struct {
	actuator Actuator
	order    []string
	locks    map[string]*sync.Mutex // immutable after construction

	mu      sync.RWMutex // protects devices
	devices map[string]*Device

	obsMu     sync.RWMutex
	observers []Observer

	logger Logger
}

// NewRegistry creates a registry for the configured devices, all initially off.
// Names are normalised to trimmed lower case.
func NewRegistry(actuator Actuator, devices []config.DeviceConfig) *Registry {
	r := &Registry{
		actuator: actuator,
		order:    make([]string, 0, len(devices)),
		locks:    make(map[string]*sync.Mutex, len(devices)),
		devices:  make(map[string]*Device, len(devices)),
		logger:   noopLogger{},
	}
	for _, dc := range devices {
		name := normalise(dc.Name)
		if _, dup := r.devices[name]; dup || name == "" {
			continue
		}
		r.order = append(r.order, name)
		r.locks[name] = &sync.Mutex{}
		r.devices[name] = &Device{Name: name, Pin: dc.Pin}
	}
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddObserver registers an observer for acknowledged actuations.
func (r *Registry) AddObserver(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// TurnOn switches the named device on.
func (r *Registry) TurnOn(ctx context.Context, name string) error {
	return r.actuate(ctx, name, true)
}

// TurnOff switches the named device off.
func (r *Registry) TurnOff(ctx context.Context, name string) error {
	return r.actuate(ctx, name, false)
}

// Set switches the named device to on.
func (r *Registry) Set(ctx context.Context, name string, on bool) error {
	return r.actuate(ctx, name, on)
}

// actuate issues exactly one relay call. Local state changes only when the
// relay acknowledges it. Unknown names never reach the relay.
func (r *Registry) actuate(ctx context.Context, name string, on bool) error {
	name = normalise(name)
	lock, ok := r.locks[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	pin := r.devices[name].Pin
	r.mu.RUnlock()

	if err := r.actuator.DigitalWrite(ctx, pin, on); err != nil {
		r.logger.Warn("actuation failed", "device", name, "on", on, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrActuationFailed, name, err)
	}

	now := time.Now().UTC()
	r.mu.Lock()
	d := r.devices[name]
	d.On = on
	d.UpdatedAt = &now
	r.mu.Unlock()

	r.logger.Info("device actuated", "device", name, "on", on)
	r.notify(ctx, Change{Device: name, On: on, At: now})
	return nil
}

func (r *Registry) notify(ctx context.Context, change Change) {
	r.obsMu.RLock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.obsMu.RUnlock()

	for _, o := range observers {
		o.DeviceChanged(ctx, change)
	}
}

// IsKnown reports whether name is a configured device.
func (r *Registry) IsKnown(name string) bool {
	_, ok := r.locks[normalise(name)]
	return ok
}

// StateOf returns the last acknowledged state, false for unknown devices.
func (r *Registry) StateOf(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[normalise(name)]
	return ok && d.On
}

// Get returns a copy of the named device.
func (r *Registry) Get(name string) (Device, error) {
	name = normalise(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[name]
	if !ok {
		return Device{}, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	return copyDevice(d), nil
}

// Devices returns copies of all devices in configuration order.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, copyDevice(r.devices[name]))
	}
	return out
}

// Names returns device names in configuration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{TotalDevices: len(r.devices)}
	for _, d := range r.devices {
		if d.On {
			stats.On++
		} else {
			stats.Off++
		}
	}
	return stats
}

func copyDevice(d *Device) Device {
	cpy := *d
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		cpy.UpdatedAt = &t
	}
	return cpy
}

func normalise(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
