package config

import (
	"time"
	"unicode/utf8"
)

// Transport backends
const (
	BackendZeroMQ = "zeromq"
	BackendMQTT   = "mqtt"
	BackendKafka  = "kafka"
	BackendRedis  = "redis"
)

// Payload encodings
const (
	EncodingJSON        = "json"
	EncodingFlatbuffers = "flatbuffers"
)

// Rate limit policies
const (
	RatePolicyPause       = "pause"
	RatePolicyMinInterval = "min_interval"
	RatePolicyNone        = "none"
)

// DefaultIntervalMs is used when interval_ms is absent
const DefaultIntervalMs = 100

// Key input sources
const (
	InputTerminal  = "terminal"
	InputWebsocket = "websocket"
)

// TransportConfig selects and configures the outbound command transport
type TransportConfig struct {
	Backend  string       `yaml:"backend" json:"backend"`
	Encoding string       `yaml:"encoding" json:"encoding"`
	ZeroMQ   ZeroMQConfig `yaml:"zeromq" json:"zeromq"`
	MQTT     MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	Kafka    KafkaConfig  `yaml:"kafka" json:"kafka"`
	Redis    RedisConfig  `yaml:"redis" json:"redis"`
}

// ZeroMQConfig holds ZeroMQ-specific configuration
type ZeroMQConfig struct {
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
}

// MQTTConfig holds MQTT broker settings
type MQTTConfig struct {
	Broker   string `yaml:"broker" json:"broker"`
	Port     int    `yaml:"port" json:"port"`
	ClientID string `yaml:"client_id" json:"client_id"`
	QoS      byte   `yaml:"qos" json:"qos"`
}

// KafkaConfig holds Kafka producer settings
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
}

// RedisConfig holds Redis pub/sub settings
type RedisConfig struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password,omitempty" json:"-"`
	DB       int    `yaml:"db" json:"db"`
}

// NavigationConfig holds the command channel names and publish pacing
type NavigationConfig struct {
	Channels  ChannelConfig   `yaml:"channels" json:"channels"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// ChannelConfig names the channel of each command axis
type ChannelConfig struct {
	Height   string `yaml:"height" json:"height"`
	Rotation string `yaml:"rotation" json:"rotation"`
	Movement string `yaml:"movement" json:"movement"`
}

// RateLimitConfig holds the publish pacing policy
// Policy "none" or an explicit interval_ms of 0 disables pacing.
type RateLimitConfig struct {
	Policy     string `yaml:"policy" json:"policy"`
	IntervalMs *int   `yaml:"interval_ms" json:"interval_ms"`
}

// Interval returns the configured interval as a duration
func (r RateLimitConfig) Interval() time.Duration {
	if r.IntervalMs == nil {
		return DefaultIntervalMs * time.Millisecond
	}
	return time.Duration(*r.IntervalMs) * time.Millisecond
}

// KeyboardConfig holds the operator console settings
type KeyboardConfig struct {
	Input         string            `yaml:"input" json:"input"`
	PowerScale    int               `yaml:"power_scale" json:"power_scale"`
	RotationScale float64           `yaml:"rotation_scale" json:"rotation_scale"`
	MaxPower      int               `yaml:"max_power" json:"max_power"`
	MaxRotation   float64           `yaml:"max_rotation" json:"max_rotation"`
	ArmOnStart    *bool             `yaml:"arm_on_start" json:"arm_on_start"`
	Bindings      map[string]string `yaml:"bindings,omitempty" json:"bindings,omitempty"`
}

// ShouldArmOnStart reports whether the interlock is engaged at startup.
// Unset means true.
func (k KeyboardConfig) ShouldArmOnStart() bool {
	return k.ArmOnStart == nil || *k.ArmOnStart
}

// BindingKeys returns the binding overrides keyed by rune.
// Entries whose key is not exactly one character are skipped.
func (k KeyboardConfig) BindingKeys() map[rune]string {
	result := make(map[rune]string, len(k.Bindings))
	for key, action := range k.Bindings {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			continue
		}
		result[r] = action
	}
	return result
}
