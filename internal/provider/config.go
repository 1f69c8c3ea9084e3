package provider

import (
	"fmt"
	"time"

	"github.com/HerbHall/netscope/internal/telemetry"
	"go.uber.org/zap"
)

// Config is the network plugin configuration (plugins.network).
type Config struct {
	RefreshInterval time.Duration    `mapstructure:"refresh_interval"`
	AutoRefresh     bool             `mapstructure:"auto_refresh"`
	Seed            uint64           `mapstructure:"seed"`
	Counts          telemetry.Counts `mapstructure:"counts"`
	SNMP            SNMPConfig       `mapstructure:"snmp"`
	Ping            PingConfig       `mapstructure:"ping"`
}

// SNMPConfig lists devices polled for interface counters.
type SNMPConfig struct {
	Targets []telemetry.SNMPTarget `mapstructure:"targets"`
	WarnRTT time.Duration          `mapstructure:"warn_rtt"`
}

// PingConfig enables ICMP latency measurement against Target.
type PingConfig struct {
	Target  string        `mapstructure:"target"`
	Window  int           `mapstructure:"window"`
	Count   int           `mapstructure:"count"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: DefaultInterval,
		AutoRefresh:     true,
		Counts:          telemetry.DefaultCounts,
		SNMP:            SNMPConfig{WarnRTT: 200 * time.Millisecond},
		Ping: PingConfig{
			Window:  telemetry.DefaultCounts.Latency,
			Count:   3,
			Timeout: time.Second,
		},
	}
}

// Validate rejects configurations the provider cannot run with.
func (c Config) Validate() error {
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1s, got %s", c.RefreshInterval)
	}
	if c.Counts.Traffic < 0 || c.Counts.Latency < 0 || c.Counts.Devices < 0 || c.Counts.Incidents < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	for i, t := range c.SNMP.Targets {
		if t.Address == "" {
			return fmt.Errorf("snmp.targets[%d]: address is required", i)
		}
		if t.Version != "" && t.Version != "2c" && t.Version != "3" {
			return fmt.Errorf("snmp.targets[%d]: unsupported version %q", i, t.Version)
		}
	}
	if c.Ping.Target != "" && (c.Ping.Count < 1 || c.Ping.Timeout <= 0) {
		return fmt.Errorf("ping.count and ping.timeout must be positive")
	}
	return nil
}

// Source builds the telemetry source the configuration describes: the mock
// generators, with devices replaced by SNMP polling and latency replaced by
// ICMP pings when those are configured.
func (c Config) Source(logger *zap.Logger) telemetry.Source {
	mockOpts := []telemetry.MockOption{telemetry.WithCounts(c.Counts)}
	if c.Seed != 0 {
		mockOpts = append(mockOpts, telemetry.WithSeed(c.Seed))
	}
	var src telemetry.Source = telemetry.NewMockSource(mockOpts...)

	if len(c.SNMP.Targets) > 0 {
		var snmpOpts []telemetry.SNMPOption
		if c.SNMP.WarnRTT > 0 {
			snmpOpts = append(snmpOpts, telemetry.WithWarnRTT(c.SNMP.WarnRTT))
		}
		src = telemetry.NewSNMPSource(src, c.SNMP.Targets, logger, snmpOpts...)
	}
	if c.Ping.Target != "" {
		pinger := telemetry.ICMPPinger(c.Ping.Count, c.Ping.Timeout)
		src = telemetry.NewPingSource(src, c.Ping.Target, c.Ping.Window, telemetry.WithPinger(pinger))
	}
	return src
}
