package mqtt

import (
	"errors"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of a broker connection the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retain bool, payload []byte) error
	Connected() bool
	Close()
}

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within the configured timeout.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

type pahoClient struct {
	client  pahomqtt.Client
	timeout time.Duration
}

// dial creates a paho client with auto-reconnect. A failed first connect is
// not an error: paho keeps retrying in the background.
func dial(cfg Config) (*pahoClient, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(cfg.Timeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := &pahoClient{client: pahomqtt.NewClient(opts), timeout: cfg.Timeout}
	token := c.client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return c, nil
	}
	return c, token.Error()
}

func (c *pahoClient) Publish(topic string, qos byte, retain bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(c.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

func (c *pahoClient) Connected() bool { return c.client.IsConnected() }

func (c *pahoClient) Close() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
