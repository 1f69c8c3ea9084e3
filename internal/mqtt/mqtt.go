package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
)

// Module mirrors network snapshots, refresh failures, and toasts onto an
// MQTT broker, with optional Home Assistant auto-discovery.
type Module struct {
	logger   *zap.Logger
	cfg      Config
	injected Client

	mu        sync.RWMutex
	client    Client
	announced map[string]bool // device ids with live discovery configs
	network   bool            // network sensor announced
}

// Option configures a Module.
type Option func(*Module)

// WithClient makes Start use c instead of dialing the broker.
func WithClient(c Client) Option {
	return func(m *Module) { m.injected = c }
}

// New creates the MQTT publisher plugin.
func New(opts ...Option) *Module {
	m := &Module{announced: make(map[string]bool)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "mqtt",
		Version:      "0.1.0",
		Description:  "Publishes network status and notifications to an MQTT broker",
		Dependencies: []string{"network"},
		APIVersion:   plugin.APIVersion,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("mqtt config: %w", err)
		}
	}
	if m.cfg.QoS > 2 {
		return fmt.Errorf("mqtt qos %d out of range 0..2", m.cfg.QoS)
	}

	if m.cfg.BrokerURL == "" && m.injected == nil {
		m.logger.Warn("MQTT broker URL not configured; events will be dropped")
	}
	m.logger.Info("mqtt module initialized",
		zap.String("broker_url", m.cfg.BrokerURL),
		zap.String("client_id", m.cfg.ClientID),
		zap.String("topic_prefix", m.cfg.TopicPrefix),
		zap.Uint8("qos", m.cfg.QoS),
		zap.Bool("ha_discovery", m.cfg.HADiscovery),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	var c Client = m.injected
	if c == nil {
		if m.cfg.BrokerURL == "" {
			m.logger.Info("mqtt module started (no-op: no broker configured)")
			return nil
		}
		pc, err := dial(m.cfg)
		if err != nil {
			m.logger.Warn("mqtt connection failed; will reconnect in background", zap.Error(err))
		}
		c = pc
	}
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
	if c != nil && c.Connected() {
		m.logger.Info("mqtt connected to broker", zap.String("broker_url", m.cfg.BrokerURL))
	}
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
		m.logger.Info("mqtt disconnected")
	}
	return nil
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: provider.TopicSnapshotRefreshed, Handler: m.handleSnapshot},
		{Topic: provider.TopicRefreshFailed, Handler: m.handleFailure},
		{Topic: notify.TopicToast, Handler: m.handleToast},
	}
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return plugin.HealthStatus{Status: "healthy", Message: "no broker configured (no-op mode)"}
	}
	if !m.client.Connected() {
		return plugin.HealthStatus{Status: "degraded", Message: "not connected to MQTT broker"}
	}
	return plugin.HealthStatus{Status: "healthy", Message: "connected to " + m.cfg.BrokerURL}
}

// Topic joins the configured prefix and a suffix.
func (m *Module) Topic(suffix string) string {
	return m.cfg.TopicPrefix + "/" + suffix
}

func (m *Module) handleSnapshot(_ context.Context, event plugin.Event) {
	snap, ok := event.Payload.(*models.Snapshot)
	if !ok || snap == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil || !m.client.Connected() {
		return
	}

	m.publishJSON(m.Topic("status"), snap.NetworkStatus, m.cfg.Retain)
	m.publishJSON(m.Topic("stats"), snap.StatusStats, m.cfg.Retain)
	m.publishState(m.Topic("status/overall"), string(snap.NetworkStatus.OverallStatus))

	seen := make(map[string]bool, len(snap.Devices))
	for i := range snap.Devices {
		d := snap.Devices[i]
		seen[d.ID] = true
		if m.cfg.HADiscovery && !m.announced[d.ID] {
			m.publishDiscovery(BuildDeviceDiscoveryConfigs(d, m.cfg.TopicPrefix, m.cfg.HADiscoveryPrefix))
			m.announced[d.ID] = true
		}
		m.publishDeviceState(d)
	}

	if m.cfg.HADiscovery {
		if !m.network {
			m.publishDiscovery([]DiscoveryConfig{BuildNetworkDiscoveryConfig(m.cfg.TopicPrefix, m.cfg.HADiscoveryPrefix)})
			m.network = true
		}
		for id := range m.announced {
			if !seen[id] {
				m.publishState(DeviceStateTopic(m.cfg.TopicPrefix, id, "status"), string(models.DeviceStatusOffline))
				m.publishDiscovery(BuildDeviceRemovalConfigs(id, m.cfg.HADiscoveryPrefix))
				delete(m.announced, id)
			}
		}
	}

	m.logger.Debug("mqtt snapshot published",
		zap.Uint64("sequence", snap.Sequence),
		zap.Int("devices", len(snap.Devices)),
	)
}

func (m *Module) handleFailure(_ context.Context, event plugin.Event) {
	f, ok := event.Payload.(provider.RefreshFailure)
	if !ok {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil || !m.client.Connected() {
		return
	}
	m.publishJSON(m.Topic("refresh/failed"), f, false)
}

func (m *Module) handleToast(_ context.Context, event plugin.Event) {
	n, ok := event.Payload.(notify.Notification)
	if !ok {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil || !m.client.Connected() {
		return
	}
	m.publishJSON(m.Topic("notification"), n, false)
}

// publishDeviceState publishes the values behind a device's HA sensors.
func (m *Module) publishDeviceState(d models.Device) {
	prefix := m.cfg.TopicPrefix
	m.publishState(DeviceStateTopic(prefix, d.ID, "status"), string(d.Status))
	m.publishState(DeviceStateTopic(prefix, d.ID, "latency"), strconv.FormatFloat(d.LatencyMs, 'f', -1, 64))
	m.publishState(DeviceStateTopic(prefix, d.ID, "bandwidth"), strconv.FormatInt(d.Bandwidth.Total(), 10))
}

func (m *Module) publishJSON(topic string, v any, retain bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("failed to marshal MQTT payload", zap.String("mqtt_topic", topic), zap.Error(err))
		return
	}
	m.publish(topic, payload, retain)
}

// publishState publishes a retained plain-text state value.
func (m *Module) publishState(topic, value string) {
	m.publish(topic, []byte(value), true)
}

// publishDiscovery publishes discovery configs. They are always retained so
// HA picks them up on restart.
func (m *Module) publishDiscovery(configs []DiscoveryConfig) {
	for i := range configs {
		m.publish(configs[i].Topic, configs[i].Payload, true)
	}
}

func (m *Module) publish(topic string, payload []byte, retain bool) {
	if err := m.client.Publish(topic, m.cfg.QoS, retain, payload); err != nil {
		m.logger.Warn("mqtt publish failed", zap.String("mqtt_topic", topic), zap.Error(err))
		return
	}
	m.logger.Debug("mqtt published", zap.String("mqtt_topic", topic), zap.Int("bytes", len(payload)))
}
