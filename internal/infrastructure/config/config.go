package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing is returned when the configuration file does not exist.
// It is fatal at startup and never retried.
var ErrConfigurationMissing = errors.New("config: configuration file missing")

// Sensor kinds recognised in the sensors section.
const (
	SensorTemperature = "temperature"
	SensorHumidity    = "humidity"
	SensorLight       = "light"
	SensorGas         = "gas"
)

// SMS providers recognised in notify.sms.provider.
const (
	SMSProviderNone   = ""
	SMSProviderTwilio = "twilio"
	SMSProviderModem  = "modem"
)

// Config is the root configuration structure for the M.U.K.H.T.A.R controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	System     SystemConfig            `yaml:"system"`
	Relay      RelayConfig             `yaml:"relay"`
	Devices    []DeviceConfig          `yaml:"devices"`
	Sensors    map[string]SensorConfig `yaml:"sensors"`
	Automation AutomationConfig        `yaml:"automation"`
	Notify     NotifyConfig            `yaml:"notify"`
	Voice      VoiceConfig             `yaml:"voice"`
	Responses  map[string][]string     `yaml:"responses"`
	Database   DatabaseConfig          `yaml:"database"`
	MQTT       MQTTConfig              `yaml:"mqtt"`
	API        APIConfig               `yaml:"api"`
	WebSocket  WebSocketConfig         `yaml:"websocket"`
	InfluxDB   InfluxDBConfig          `yaml:"influxdb"`
	Logging    LoggingConfig           `yaml:"logging"`
}

// SystemConfig contains assistant identity settings.
type SystemConfig struct {
	Name string `yaml:"name"`
}

// RelayConfig contains the cloud relay (Bolt IoT) credentials.
type RelayConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	DeviceID string        `yaml:"device_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DeviceConfig maps a device name to its actuation pin.
// The order of the devices list is the registry order.
type DeviceConfig struct {
	Name string `yaml:"name"`
	Pin  string `yaml:"pin"`
}

// SensorConfig maps a sensor kind to its analog input line.
type SensorConfig struct {
	Pin string `yaml:"pin"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the sensor is enabled.
func (s SensorConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// AutomationConfig contains background automation loop settings.
type AutomationConfig struct {
	// Enabled is the startup mode: true starts in auto, false in manual.
	Enabled bool `yaml:"enabled"`

	// Interval is the period between ticks. Default: 30s
	Interval time.Duration `yaml:"interval"`

	// Backoff is the wait after a tick failed unexpectedly. Default: 60s
	Backoff time.Duration `yaml:"backoff"`

	// AlertCooldown suppresses repeated critical notifications.
	// Zero sends one notification per tick while the condition holds.
	// Default: 10m
	AlertCooldown time.Duration `yaml:"alert_cooldown"`

	Rules      AutomationRulesConfig `yaml:"rules"`
	Thresholds ThresholdsConfig      `yaml:"thresholds"`

	FanDevice     string `yaml:"fan_device"`
	LightDevice   string `yaml:"light_device"`
	ExhaustDevice string `yaml:"exhaust_device"`
}

// AutomationRulesConfig enables individual automation rules.
type AutomationRulesConfig struct {
	TemperatureControl bool `yaml:"temperature_control"`
	LightControl       bool `yaml:"light_control"`
	GasAlert           bool `yaml:"gas_alert"`
}

// ThresholdsConfig contains automation thresholds.
// Each pair leaves a dead band between the on and off values.
type ThresholdsConfig struct {
	Temperature TemperatureThresholds `yaml:"temperature"`
	Light       LightThresholds       `yaml:"light"`
	Gas         GasThresholds         `yaml:"gas"`
}

// TemperatureThresholds in degrees Celsius.
type TemperatureThresholds struct {
	FanOn  float64 `yaml:"fan_on"`
	FanOff float64 `yaml:"fan_off"`
}

// LightThresholds in percent.
type LightThresholds struct {
	LightOn  float64 `yaml:"light_on"`
	LightOff float64 `yaml:"light_off"`
}

// GasThresholds in raw sensor units.
type GasThresholds struct {
	Alert    float64 `yaml:"alert"`
	Critical float64 `yaml:"critical"`
	Clear    float64 `yaml:"clear"`
}

// NotifyConfig contains emergency notification settings.
type NotifyConfig struct {
	SMS      SMSConfig      `yaml:"sms"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// SMSConfig contains SMS gateway settings.
type SMSConfig struct {
	// Provider is "twilio", "modem" or empty to disable SMS.
	Provider string       `yaml:"provider"`
	From     string       `yaml:"from_number"`
	To       string       `yaml:"to_number"`
	Twilio   TwilioConfig `yaml:"twilio"`
	Modem    ModemConfig  `yaml:"modem"`
}

// TwilioConfig contains Twilio REST credentials.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
}

// ModemConfig contains GSM modem settings.
type ModemConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// TelegramConfig contains Telegram bot settings.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// VoiceConfig contains speech settings.
type VoiceConfig struct {
	// Enabled speaks every response through the text-to-speech engine.
	Enabled    bool             `yaml:"enabled"`
	Speaker    SpeakerConfig    `yaml:"speaker"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
}

// SpeakerConfig contains text-to-speech settings.
type SpeakerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// RecognizerConfig contains speech-to-text settings.
type RecognizerConfig struct {
	// RecordCommand captures audio as WAV on stdout.
	RecordCommand []string      `yaml:"record_command"`
	Endpoint      string        `yaml:"endpoint"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Language      string        `yaml:"language"`
	Timeout       time.Duration `yaml:"timeout"`
}

// DatabaseConfig contains SQLite journal settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MUKHTAR_SECTION_KEY
// For example: MUKHTAR_RELAY_API_KEY, MUKHTAR_TWILIO_AUTH_TOKEN
//
// Returns ErrConfigurationMissing (wrapped) when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the thresholds and pins the controller
// board ships with.
func defaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Name: "M.U.K.H.T.A.R",
		},
		Relay: RelayConfig{
			BaseURL: "https://cloud.boltiot.com/remote",
			Timeout: 10 * time.Second,
		},
		Devices: []DeviceConfig{
			{Name: "light", Pin: "0"},
			{Name: "fan", Pin: "1"},
			{Name: "exhaust", Pin: "2"},
			{Name: "plug", Pin: "3"},
		},
		Sensors: map[string]SensorConfig{
			SensorTemperature: {Pin: "A0"},
			SensorHumidity:    {Pin: "A1"},
			SensorLight:       {Pin: "A2"},
			SensorGas:         {Pin: "A3"},
		},
		Automation: AutomationConfig{
			Enabled:       true,
			Interval:      30 * time.Second,
			Backoff:       60 * time.Second,
			AlertCooldown: 10 * time.Minute,
			Rules: AutomationRulesConfig{
				TemperatureControl: true,
				LightControl:       true,
				GasAlert:           true,
			},
			Thresholds: ThresholdsConfig{
				Temperature: TemperatureThresholds{FanOn: 35, FanOff: 30},
				Light:       LightThresholds{LightOn: 20, LightOff: 60},
				Gas:         GasThresholds{Alert: 300, Critical: 500, Clear: 200},
			},
			FanDevice:     "fan",
			LightDevice:   "light",
			ExhaustDevice: "exhaust",
		},
		Notify: NotifyConfig{
			SMS: SMSConfig{
				Modem: ModemConfig{Baud: 115200},
			},
		},
		Voice: VoiceConfig{
			Speaker: SpeakerConfig{
				Command: "espeak",
				Args:    []string{"-s", "150"},
			},
			Recognizer: RecognizerConfig{
				RecordCommand: []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", "5", "-t", "wav"},
				Model:         "whisper-1",
				Language:      "en",
				Timeout:       15 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/mukhtar.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "mukhtar",
			},
			QoS:         1,
			TopicPrefix: "mukhtar",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "mukhtar",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Secrets should be supplied this way rather than in the file.
func applyEnvOverrides(cfg *Config) {
	// Relay
	if v := os.Getenv("MUKHTAR_RELAY_API_KEY"); v != "" {
		cfg.Relay.APIKey = v
	}
	if v := os.Getenv("MUKHTAR_RELAY_DEVICE_ID"); v != "" {
		cfg.Relay.DeviceID = v
	}

	// Notifications
	if v := os.Getenv("MUKHTAR_TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Notify.SMS.Twilio.AccountSID = v
	}
	if v := os.Getenv("MUKHTAR_TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Notify.SMS.Twilio.AuthToken = v
	}
	if v := os.Getenv("MUKHTAR_TELEGRAM_TOKEN"); v != "" {
		cfg.Notify.Telegram.Token = v
	}

	// Voice
	if v := os.Getenv("MUKHTAR_VOICE_API_KEY"); v != "" {
		cfg.Voice.Recognizer.APIKey = v
	}

	// Database
	if v := os.Getenv("MUKHTAR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("MUKHTAR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MUKHTAR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MUKHTAR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("MUKHTAR_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("MUKHTAR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
// All problems are reported together.
func (c *Config) Validate() error { //nolint:gocognit,gocyclo // flat list of independent checks
	var errs []string

	// Relay
	if c.Relay.BaseURL == "" {
		errs = append(errs, "relay.base_url is required")
	}
	if c.Relay.APIKey == "" {
		errs = append(errs, "relay.api_key is required (set MUKHTAR_RELAY_API_KEY)")
	}
	if c.Relay.DeviceID == "" {
		errs = append(errs, "relay.device_id is required")
	}
	if c.Relay.Timeout <= 0 {
		errs = append(errs, "relay.timeout must be positive")
	}

	// Devices
	if len(c.Devices) == 0 {
		errs = append(errs, "at least one device is required")
	}
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Sprintf("devices[%d].name is required", i))
		case name != strings.ToLower(name):
			errs = append(errs, fmt.Sprintf("devices[%d].name %q must be lower case", i, d.Name))
		case seen[name]:
			errs = append(errs, fmt.Sprintf("devices[%d].name %q is duplicated", i, d.Name))
		}
		seen[name] = true
		if d.Pin == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].pin is required", i))
		}
	}

	// Sensors
	for kind, s := range c.Sensors {
		switch kind {
		case SensorTemperature, SensorHumidity, SensorLight, SensorGas:
		default:
			errs = append(errs, fmt.Sprintf("sensors.%s is not a known sensor kind", kind))
		}
		if s.Pin == "" && s.IsEnabled() {
			errs = append(errs, fmt.Sprintf("sensors.%s.pin is required", kind))
		}
	}

	// Automation
	a := c.Automation
	if a.Interval <= 0 {
		errs = append(errs, "automation.interval must be positive")
	}
	if a.Backoff <= 0 {
		errs = append(errs, "automation.backoff must be positive")
	}
	if a.AlertCooldown < 0 {
		errs = append(errs, "automation.alert_cooldown cannot be negative")
	}
	if a.Thresholds.Temperature.FanOff > a.Thresholds.Temperature.FanOn {
		errs = append(errs, "automation.thresholds.temperature.fan_off must not exceed fan_on")
	}
	if a.Thresholds.Light.LightOn > a.Thresholds.Light.LightOff {
		errs = append(errs, "automation.thresholds.light.light_on must not exceed light_off")
	}
	if a.Thresholds.Gas.Clear > a.Thresholds.Gas.Alert {
		errs = append(errs, "automation.thresholds.gas.clear must not exceed alert")
	}
	if a.Thresholds.Gas.Alert > a.Thresholds.Gas.Critical {
		errs = append(errs, "automation.thresholds.gas.alert must not exceed critical")
	}
	if a.Rules.TemperatureControl && !seen[a.FanDevice] {
		errs = append(errs, fmt.Sprintf("automation.fan_device %q is not a configured device", a.FanDevice))
	}
	if a.Rules.LightControl && !seen[a.LightDevice] {
		errs = append(errs, fmt.Sprintf("automation.light_device %q is not a configured device", a.LightDevice))
	}
	if a.Rules.GasAlert && !seen[a.ExhaustDevice] {
		errs = append(errs, fmt.Sprintf("automation.exhaust_device %q is not a configured device", a.ExhaustDevice))
	}

	// Notifications
	sms := c.Notify.SMS
	switch sms.Provider {
	case SMSProviderNone:
	case SMSProviderTwilio:
		if sms.Twilio.AccountSID == "" || sms.Twilio.AuthToken == "" {
			errs = append(errs, "notify.sms.twilio.account_sid and auth_token are required")
		}
		if sms.From == "" {
			errs = append(errs, "notify.sms.from_number is required for twilio")
		}
	case SMSProviderModem:
		if sms.Modem.Device == "" {
			errs = append(errs, "notify.sms.modem.device is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify.sms.provider %q must be twilio or modem", sms.Provider))
	}
	if sms.Provider != SMSProviderNone && sms.To == "" {
		errs = append(errs, "notify.sms.to_number is required")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			errs = append(errs, "notify.telegram.token is required (set MUKHTAR_TELEGRAM_TOKEN)")
		}
		if c.Notify.Telegram.ChatID == 0 {
			errs = append(errs, "notify.telegram.chat_id is required")
		}
	}

	// Optional infrastructure
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required")
		}
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
