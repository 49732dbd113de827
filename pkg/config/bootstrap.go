package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// BootstrapFileName is the file looked up inside the config directory
const BootstrapFileName = "auvnav_config.yaml"

// BootstrapConfig holds the configuration loaded from auvnav_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Transport  TransportConfig  `yaml:"transport" json:"transport"`
	Navigation NavigationConfig `yaml:"navigation" json:"navigation"`
	Keyboard   KeyboardConfig   `yaml:"keyboard" json:"keyboard"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ServerConfig holds the status HTTP server settings. Port 0 disables it.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// Default returns a configuration with every default applied
func Default() *BootstrapConfig {
	cfg := &BootstrapConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadBootstrapConfig loads the bootstrap configuration from configDir/auvnav_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	return ParseBootstrapConfig(data, bootstrapConfigPath)
}

// ParseBootstrapConfig parses YAML data, applies defaults and validates.
// source is only used in error messages.
func ParseBootstrapConfig(data []byte, source string) (*BootstrapConfig, error) {
	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", source, err)
	}

	bootstrapCfg.ApplyDefaults()
	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}
	return &bootstrapCfg, nil
}

// ApplyDefaults fills zero-valued fields with their defaults
func (c *BootstrapConfig) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Transport.Backend == "" {
		c.Transport.Backend = BackendZeroMQ
	}
	if c.Transport.Encoding == "" {
		c.Transport.Encoding = EncodingJSON
	}
	if c.Transport.ZeroMQ.PublishBindAddress == "" {
		c.Transport.ZeroMQ.PublishBindAddress = "tcp://*:5557"
	}
	if c.Transport.MQTT.Port == 0 {
		c.Transport.MQTT.Port = 1883
	}
	if c.Transport.MQTT.ClientID == "" {
		c.Transport.MQTT.ClientID = "auvnav"
	}

	ch := &c.Navigation.Channels
	if ch.Height == "" {
		ch.Height = "height_control"
	}
	if ch.Rotation == "" {
		ch.Rotation = "rotation_control"
	}
	if ch.Movement == "" {
		ch.Movement = "movement_control"
	}
	if c.Navigation.RateLimit.Policy == "" {
		c.Navigation.RateLimit.Policy = RatePolicyPause
	}
	if c.Navigation.RateLimit.IntervalMs == nil {
		interval := DefaultIntervalMs
		c.Navigation.RateLimit.IntervalMs = &interval
	}

	kb := &c.Keyboard
	if kb.Input == "" {
		kb.Input = InputTerminal
	}
	if kb.PowerScale == 0 {
		kb.PowerScale = 40
	}
	if kb.RotationScale == 0 {
		kb.RotationScale = 18.0
	}
	if kb.MaxPower == 0 {
		kb.MaxPower = 400
	}
	if kb.MaxRotation == 0 {
		kb.MaxRotation = 180.0
	}
}

// Validate checks required fields and enumerated values
func (c *BootstrapConfig) Validate() error {
	switch c.Transport.Backend {
	case BackendZeroMQ:
	case BackendMQTT:
		if c.Transport.MQTT.Broker == "" {
			return missingField("transport.mqtt.broker")
		}
	case BackendKafka:
		if len(c.Transport.Kafka.Brokers) == 0 {
			return missingField("transport.kafka.brokers")
		}
	case BackendRedis:
		if c.Transport.Redis.Address == "" {
			return missingField("transport.redis.address")
		}
	default:
		return invalidValue("transport.backend", c.Transport.Backend)
	}

	switch c.Transport.Encoding {
	case EncodingJSON, EncodingFlatbuffers:
	default:
		return invalidValue("transport.encoding", c.Transport.Encoding)
	}

	if c.Transport.MQTT.QoS > 2 {
		return invalidValue("transport.mqtt.qos", c.Transport.MQTT.QoS)
	}

	switch c.Navigation.RateLimit.Policy {
	case RatePolicyPause, RatePolicyMinInterval, RatePolicyNone:
	default:
		return invalidValue("navigation.rate_limit.policy", c.Navigation.RateLimit.Policy)
	}
	if ms := c.Navigation.RateLimit.IntervalMs; ms != nil && *ms < 0 {
		return invalidValue("navigation.rate_limit.interval_ms", *ms)
	}

	ch := c.Navigation.Channels
	if ch.Height == ch.Rotation || ch.Height == ch.Movement || ch.Rotation == ch.Movement {
		return fmt.Errorf("invalid value in bootstrap config: navigation.channels must be distinct")
	}

	kb := c.Keyboard
	switch kb.Input {
	case InputTerminal, InputWebsocket:
	default:
		return invalidValue("keyboard.input", kb.Input)
	}
	if kb.Input == InputWebsocket && c.Server.HTTPPort == 0 {
		return missingField("server.http_port")
	}
	// the killswitch endpoint is the only way to arm later
	if !kb.ShouldArmOnStart() && c.Server.HTTPPort == 0 {
		return missingField("server.http_port")
	}
	if kb.PowerScale < 0 {
		return invalidValue("keyboard.power_scale", kb.PowerScale)
	}
	if kb.RotationScale < 0 {
		return invalidValue("keyboard.rotation_scale", kb.RotationScale)
	}
	if kb.MaxPower < 0 {
		return invalidValue("keyboard.max_power", kb.MaxPower)
	}
	if kb.MaxRotation < 0 {
		return invalidValue("keyboard.max_rotation", kb.MaxRotation)
	}
	for key := range kb.Bindings {
		if utf8.RuneCountInString(key) != 1 {
			return invalidValue("keyboard.bindings", key)
		}
	}

	return nil
}

func missingField(path string) error {
	return fmt.Errorf("missing required field in bootstrap config: %s", path)
}

func invalidValue(path string, value interface{}) error {
	return fmt.Errorf("invalid value in bootstrap config: %s=%v", path, value)
}
