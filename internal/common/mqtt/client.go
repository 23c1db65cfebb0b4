package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"wisefido-attendance/internal/common/config"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // ms
)

// Client wraps a paho client used for outbound notifications only.
type Client struct {
	conn   paho.Client
	qos    byte
	logger *zap.Logger
}

// NewClient 连接 broker；连接断开后由 paho 自动重连
func NewClient(cfg *config.MQTTConfig, logger *zap.Logger) (*Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(connectTimeout)

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("MQTT connection lost", zap.String("broker", cfg.Broker), zap.Error(err))
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("MQTT connected", zap.String("broker", cfg.Broker))
	})

	conn := paho.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return &Client{conn: conn, qos: cfg.QoS, logger: logger}, nil
}

// Publish blocks until the broker acknowledges the message or publishTimeout passes.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.conn.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}

	c.logger.Debug("Published MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_bytes", len(payload)),
	)
	return nil
}

// QoS 默认服务质量等级
func (c *Client) QoS() byte {
	return c.qos
}

func (c *Client) Disconnect() {
	c.conn.Disconnect(disconnectQuiesce)
}

func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}
