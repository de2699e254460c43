package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Gateway.
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

type line struct {
	pin     string
	enabled bool
}

// Gateway reads and normalises sensor values through the relay.
// Every Read issues one relay call. The last successful reading per kind
// is kept for reporting only.
//
// All public methods are thread-safe.
type Gateway struct {
	reader Reader
	lines  map[Kind]line // immutable after construction

	mu   sync.RWMutex
	last map[Kind]Reading

	observers []Observer
	logger    Logger
	now       func() time.Time
}

// NewGateway creates a gateway for the configured sensors.
// Keys of sensors that are not a known Kind are ignored.
func NewGateway(reader Reader, sensors map[string]config.SensorConfig) *Gateway {
	g := &Gateway{
		reader: reader,
		lines:  make(map[Kind]line, len(sensors)),
		last:   make(map[Kind]Reading, len(sensors)),
		logger: noopLogger{},
		now:    time.Now,
	}
	for name, sc := range sensors {
		kind, ok := ParseKind(name)
		if !ok {
			continue
		}
		g.lines[kind] = line{pin: sc.Pin, enabled: sc.IsEnabled()}
	}
	return g
}

// SetLogger sets the logger for the gateway.
func (g *Gateway) SetLogger(logger Logger) {
	g.logger = logger
}

// AddObserver registers an observer for successful readings.
// It must be called before the gateway is shared between goroutines.
func (g *Gateway) AddObserver(o Observer) {
	g.observers = append(g.observers, o)
}

// Read fetches a fresh reading for kind.
// Failures wrap ErrSensorUnavailable; the cached value is left untouched.
func (g *Gateway) Read(ctx context.Context, kind Kind) (Reading, error) {
	l, ok := g.lines[kind]
	if !ok {
		return Reading{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !l.enabled {
		return Reading{}, fmt.Errorf("%w: %s", ErrSensorDisabled, kind)
	}

	raw, err := g.reader.AnalogRead(ctx, l.pin)
	if err != nil {
		g.logger.Warn("sensor read failed", "kind", kind, "pin", l.pin, "error", err)
		return Reading{}, fmt.Errorf("%w: %s: %w", ErrSensorUnavailable, kind, err)
	}

	r := Reading{
		Kind:      kind,
		Raw:       raw,
		Value:     Normalise(kind, raw),
		Timestamp: g.now().UTC(),
	}

	g.mu.Lock()
	g.last[kind] = r
	g.mu.Unlock()

	g.logger.Debug("sensor read", "kind", kind, "raw", raw, "value", r.Value)
	for _, o := range g.observers {
		o.SensorRead(ctx, r)
	}
	return r, nil
}

// Last returns the most recent successful reading for kind.
func (g *Gateway) Last(kind Kind) (Reading, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.last[kind]
	return r, ok
}

// Enabled reports whether kind is configured and enabled.
func (g *Gateway) Enabled(kind Kind) bool {
	l, ok := g.lines[kind]
	return ok && l.enabled
}

// Normalise converts a raw relay value to engineering units.
// Temperature is scaled by 0.1 and light to a 0-100 percentage of 1024;
// humidity and gas pass through unscaled.
func Normalise(kind Kind, raw float64) float64 {
	switch kind {
	case Temperature:
		// Division keeps integral tenths exact (300 -> 30, not 30.000000000000004).
		return raw / 10
	case Light:
		return (raw / 1024) * 100
	default:
		return raw
	}
}
