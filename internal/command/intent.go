package command

import "github.com/nerrad567/mukhtar/internal/sensor"

// Action is the kind of request an utterance expresses.
type Action int

// Actions in classification priority order, Unknown last.
const (
	Unknown Action = iota
	TurnOn
	TurnOff
	QuerySensor
	StatusReport
	SetAutomation
)

var actionNames = map[Action]string{
	Unknown:       "unknown",
	TurnOn:        "turn_on",
	TurnOff:       "turn_off",
	QuerySensor:   "query_sensor",
	StatusReport:  "status_report",
	SetAutomation: "set_automation",
}

// String returns the snake_case action name.
func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Intent is the classified meaning of one utterance.
// Only the field relevant to Action is set.
type Intent struct {
	Action Action      `json:"action"`
	Device string      `json:"device,omitempty"`
	Sensor sensor.Kind `json:"sensor,omitempty"`
	Enable bool        `json:"enable,omitempty"`

	// Text is the normalised input.
	Text string `json:"text"`
}
