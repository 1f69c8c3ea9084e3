package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host     string  `mapstructure:"host"`
	Port     int     `mapstructure:"port"`
	DevMode  bool    `mapstructure:"dev_mode"`
	ReadOnly bool    `mapstructure:"read_only"`
	RateRPS  float64 `mapstructure:"rate_limit_rps"`
	Burst    int     `mapstructure:"rate_limit_burst"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.read_only", false)
	v.SetDefault("server.rate_limit_rps", 100)
	v.SetDefault("server.rate_limit_burst", 200)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("export.dir", "./exports")
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.timeout", "10s")

	// Plugin defaults
	v.SetDefault("plugins.network.refresh_interval", "30s")
	v.SetDefault("plugins.network.auto_refresh", true)
	v.SetDefault("plugins.network.seed", 0)
	v.SetDefault("plugins.network.counts.traffic", 24)
	v.SetDefault("plugins.network.counts.latency", 24)
	v.SetDefault("plugins.network.counts.devices", 10)
	v.SetDefault("plugins.network.counts.incidents", 5)
	v.SetDefault("plugins.network.snmp.warn_rtt", "200ms")
	v.SetDefault("plugins.network.ping.target", "")
	v.SetDefault("plugins.network.ping.count", 3)
	v.SetDefault("plugins.network.ping.timeout", "1s")
	v.SetDefault("plugins.history.retention", "720h")
	v.SetDefault("plugins.history.maintenance_interval", "1h")
	v.SetDefault("plugins.mqtt.broker_url", "")
	v.SetDefault("plugins.mqtt.topic_prefix", "netscope")
	v.SetDefault("plugins.mqtt.qos", 1)
	v.SetDefault("plugins.mqtt.retain", true)
	v.SetDefault("plugins.mqtt.ha_discovery", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("netscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/netscope")
	}

	// Environment variable support: NS_SERVER_PORT=9090
	v.SetEnvPrefix("NS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// DatabasePath returns database.path, or netscope.db under server.data_dir
// when database.path is unset, and creates the parent directory.
func DatabasePath(v *viper.Viper) (string, error) {
	path := v.GetString("database.path")
	if path == "" {
		path = filepath.Join(v.GetString("server.data_dir"), "netscope.db")
	}
	if path == ":memory:" {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return path, nil
}
