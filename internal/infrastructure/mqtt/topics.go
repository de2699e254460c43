package mqtt

import "strings"

// DefaultTopicPrefix roots every topic when none is configured.
const DefaultTopicPrefix = "mukhtar"

// Topics builds the controller's MQTT topic names.
//
//	topics := mqtt.NewTopics("mukhtar")
//	topics.DeviceState("fan")   // mukhtar/state/fan
//	topics.Sensor("gas")        // mukhtar/sensor/gas
type Topics struct {
	prefix string
}

// NewTopics creates a builder rooted at prefix. Surrounding slashes are
// trimmed; an empty prefix becomes DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.root()
}

func (t Topics) root() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// DeviceState is the retained state topic for one device.
func (t Topics) DeviceState(device string) string {
	return t.root() + "/state/" + device
}

// Sensor is the retained reading topic for one sensor kind.
func (t Topics) Sensor(kind string) string {
	return t.root() + "/sensor/" + kind
}

// Alert carries critical alert messages.
func (t Topics) Alert() string {
	return t.root() + "/alert"
}

// Mode is the retained automation mode topic.
func (t Topics) Mode() string {
	return t.root() + "/mode"
}

// Command receives free-text commands.
func (t Topics) Command() string {
	return t.root() + "/command"
}

// Reply carries the response lines for commands received on Command.
func (t Topics) Reply() string {
	return t.root() + "/reply"
}

// SystemStatus is the retained online/offline topic, also used for the LWT.
func (t Topics) SystemStatus() string {
	return t.root() + "/system/status"
}

// AllDeviceStates matches every device state topic.
func (t Topics) AllDeviceStates() string {
	return t.root() + "/state/+"
}

// All matches every controller topic.
func (t Topics) All() string {
	return t.root() + "/#"
}
