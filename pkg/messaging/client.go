// Package messaging publishes command payloads through a broker:
// MQTT, Kafka or Redis pub/sub.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/open-teleop/auvnav/pkg/config"
	customlog "github.com/open-teleop/auvnav/pkg/log"
)

// ErrNotConnected is returned when publishing before Connect or after Close
var ErrNotConnected = errors.New("messaging backend not connected")

// publishTimeout bounds a single broker round trip
const publishTimeout = 2 * time.Second

// Client is the unified broker client
type Client struct {
	mu      sync.RWMutex
	cfg     config.TransportConfig
	backend string
	logger  customlog.Logger

	mqttConn mqtt.Client
	kafkaW   *kafkago.Writer
	redis    *redis.Client
}

// NewClient creates a client for cfg.Backend. Nothing is dialed until Connect.
func NewClient(cfg config.TransportConfig, logger customlog.Logger) *Client {
	if logger == nil {
		logger = customlog.Discard()
	}
	return &Client{
		cfg:     cfg,
		backend: cfg.Backend,
		logger:  logger.WithField("backend", cfg.Backend),
	}
}

// Backend returns the configured backend name
func (c *Client) Backend() string {
	return c.backend
}

// Connect establishes the broker connection
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case config.BackendMQTT:
		return c.connectMQTT()
	case config.BackendKafka:
		return c.connectKafka()
	case config.BackendRedis:
		return c.connectRedis(ctx)
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect: timed out waiting for %s", broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.mqttConn = client
	c.logger.Infof("Connected to MQTT broker %s", broker)
	return nil
}

func (c *Client) connectKafka() error {
	c.kafkaW = &kafkago.Writer{
		Addr:                   kafkago.TCP(c.cfg.Kafka.Brokers...),
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		// commands are latency sensitive; do not wait to fill a batch
		BatchTimeout: 5 * time.Millisecond,
	}
	c.logger.Infof("Kafka writer ready for brokers %v", c.cfg.Kafka.Brokers)
	return nil
}

func (c *Client) connectRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Address,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis connect: %w", err)
	}
	c.redis = client
	c.logger.Infof("Connected to Redis at %s", c.cfg.Redis.Address)
	return nil
}

// PublishMessage sends payload on topic
func (c *Client) PublishMessage(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	switch c.backend {
	case config.BackendMQTT:
		if c.mqttConn == nil || !c.mqttConn.IsConnected() {
			return ErrNotConnected
		}
		token := c.mqttConn.Publish(topic, c.cfg.MQTT.QoS, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("mqtt publish to %s: timed out", topic)
		}
		return token.Error()
	case config.BackendKafka:
		if c.kafkaW == nil {
			return ErrNotConnected
		}
		return c.kafkaW.WriteMessages(ctx, kafkago.Message{
			Topic: topic,
			Value: payload,
		})
	case config.BackendRedis:
		if c.redis == nil {
			return ErrNotConnected
		}
		return c.redis.Publish(ctx, topic, payload).Err()
	default:
		return fmt.Errorf("unknown backend: %s", c.backend)
	}
}

// Close tears down the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(250)
		c.mqttConn = nil
	}
	if c.kafkaW != nil {
		err = errors.Join(err, c.kafkaW.Close())
		c.kafkaW = nil
	}
	if c.redis != nil {
		err = errors.Join(err, c.redis.Close())
		c.redis = nil
	}
	return err
}
