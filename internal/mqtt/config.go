package mqtt

import "time"

// Config holds MQTT publisher configuration (plugins.mqtt).
type Config struct {
	BrokerURL   string        `mapstructure:"broker_url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"` //nolint:gosec // G101: config field name, not a credential
	ClientID    string        `mapstructure:"client_id"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	QoS         byte          `mapstructure:"qos"`
	Retain      bool          `mapstructure:"retain"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// Home Assistant MQTT auto-discovery.
	HADiscovery       bool   `mapstructure:"ha_discovery"`
	HADiscoveryPrefix string `mapstructure:"ha_discovery_prefix"`
}

// DefaultConfig returns the publisher defaults. An empty BrokerURL disables
// publishing.
func DefaultConfig() Config {
	return Config{
		ClientID:          "netscope",
		TopicPrefix:       "netscope",
		QoS:               1,
		Retain:            true,
		Timeout:           10 * time.Second,
		HADiscoveryPrefix: "homeassistant",
	}
}
