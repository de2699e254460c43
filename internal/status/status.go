package status

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/mukhtar/internal/automation"
	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/persona"
	"github.com/nerrad567/mukhtar/internal/sensor"
)

// Sensors is the slice of the sensor gateway the reporter needs.
type Sensors interface {
	Read(ctx context.Context, kind sensor.Kind) (sensor.Reading, error)
	Last(kind sensor.Kind) (sensor.Reading, bool)
}

// Devices lists devices in display order.
type Devices interface {
	Devices() []device.Device
}

// ModeReader reports the automation mode.
type ModeReader interface {
	Auto() bool
}

// Thresholds drive the remarks appended to a report.
type Thresholds struct {
	TemperatureHigh float64
	GasAlert        float64
}

// Remarks appended when readings cross Thresholds.
const (
	RemarkCooling     = "Temperature analysis suggests immediate cooling intervention required."
	RemarkVentilation = "Atmospheric contamination detected. Ventilation recommended."
)

// SensorStatus is one row of the environmental section.
type SensorStatus struct {
	Kind      sensor.Kind `json:"kind"`
	Available bool        `json:"available"`
	Value     float64     `json:"value,omitempty"`
	Unit      string      `json:"unit,omitempty"`
	Error     string      `json:"error,omitempty"`

	// LastKnown is set when the fresh read failed but an earlier one succeeded.
	LastKnown *sensor.Reading `json:"last_known,omitempty"`
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Auto      bool            `json:"auto"`
	Mode      string          `json:"mode"`
	Sensors   []SensorStatus  `json:"sensors"`
	Devices   []device.Device `json:"devices"`
	Remarks   []string        `json:"remarks,omitempty"`
}

// Reporter builds snapshots. It only reads; it never actuates.
type Reporter struct {
	sensors    Sensors
	devices    Devices
	mode       ModeReader
	thresholds Thresholds
	now        func() time.Time
}

// NewReporter creates a status reporter.
func NewReporter(sensors Sensors, devices Devices, mode ModeReader, thresholds Thresholds) *Reporter {
	return &Reporter{
		sensors:    sensors,
		devices:    devices,
		mode:       mode,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Report reads every sensor kind afresh and combines the results with the
// device table and the automation mode. It never fails: an unreadable
// sensor is marked unavailable, with its last known value when there is one.
func (r *Reporter) Report(ctx context.Context) Snapshot {
	auto := r.mode.Auto()
	snap := Snapshot{
		Timestamp: r.now(),
		Auto:      auto,
		Mode:      automation.Label(auto),
		Devices:   r.devices.Devices(),
	}

	for _, kind := range sensor.AllKinds {
		row := SensorStatus{Kind: kind, Unit: kind.Unit()}
		reading, err := r.sensors.Read(ctx, kind)
		if err == nil {
			row.Available = true
			row.Value = reading.Value
		} else {
			row.Error = errorLabel(err)
			if last, ok := r.sensors.Last(kind); ok {
				row.LastKnown = &last
			}
		}
		snap.Sensors = append(snap.Sensors, row)
	}

	snap.Remarks = r.remarks(snap)
	return snap
}

func (r *Reporter) remarks(s Snapshot) []string {
	var out []string
	if v, ok := s.Value(sensor.Temperature); ok && v > r.thresholds.TemperatureHigh {
		out = append(out, RemarkCooling)
	}
	if v, ok := s.Value(sensor.Gas); ok && v > r.thresholds.GasAlert {
		out = append(out, RemarkVentilation)
	}
	return out
}

func errorLabel(err error) string {
	if errors.Is(err, sensor.ErrSensorDisabled) {
		return "disabled"
	}
	return "unavailable"
}

// Value returns the fresh value for kind, if it was read.
func (s Snapshot) Value(kind sensor.Kind) (float64, bool) {
	for _, row := range s.Sensors {
		if row.Kind == kind && row.Available {
			return row.Value, true
		}
	}
	return 0, false
}

// Commentary returns the remarks for readings beyond the thresholds.
func (s Snapshot) Commentary() []string {
	return s.Remarks
}

// Healthy reports whether every enabled sensor answered.
func (s Snapshot) Healthy() bool {
	for _, row := range s.Sensors {
		if !row.Available && row.Error != "disabled" {
			return false
		}
	}
	return true
}

var sensorLabels = map[sensor.Kind]string{
	sensor.Temperature: "Temperature",
	sensor.Humidity:    "Humidity",
	sensor.Light:       "Light Level",
	sensor.Gas:         "Gas Level",
}

const rule = "=================================================="

// Format renders the text report shown on the console.
func (s Snapshot) Format() string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("        " + persona.Name + " STATUS REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", s.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "System Mode: %s\n", s.Mode)

	b.WriteString("\nENVIRONMENTAL CONDITIONS:\n")
	for _, row := range s.Sensors {
		label := sensorLabels[row.Kind]
		switch {
		case row.Available:
			fmt.Fprintf(&b, "  %s: %s\n", label, formatReading(row.Kind, row.Value))
		case row.Error == "disabled":
			fmt.Fprintf(&b, "  %s: DISABLED\n", label)
		case row.LastKnown != nil:
			fmt.Fprintf(&b, "  %s: SENSOR ERROR (last %s at %s)\n", label,
				formatReading(row.Kind, row.LastKnown.Value),
				row.LastKnown.Timestamp.Local().Format("15:04:05"))
		default:
			fmt.Fprintf(&b, "  %s: SENSOR ERROR\n", label)
		}
	}

	b.WriteString("\nDEVICE STATUS:\n")
	for _, d := range s.Devices {
		state := "OFFLINE"
		if d.On {
			state = "ONLINE"
		}
		fmt.Fprintf(&b, "  %s: %s\n", title(d.Name), state)
	}

	health := "OPTIMAL"
	if !s.Healthy() {
		health = "DEGRADED"
	}
	fmt.Fprintf(&b, "\nSYSTEM HEALTH: %s\n", health)
	b.WriteString(rule + "\n")

	return b.String()
}

// formatReading uses one decimal for scaled kinds and the raw figure for gas.
func formatReading(kind sensor.Kind, v float64) string {
	switch kind {
	case sensor.Temperature:
		return fmt.Sprintf("%.1f°C", v)
	case sensor.Humidity, sensor.Light:
		return fmt.Sprintf("%.1f%%", v)
	default:
		return automation.FormatValue(v)
	}
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
