package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/telemetry"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ plugin.Validator     = (*Module)(nil)
)

// Module runs the Provider as the "network" plugin.
type Module struct {
	notifier notify.Sink
	reg      prometheus.Registerer
	source   telemetry.Source
	opts     []Option

	cfg      Config
	logger   *zap.Logger
	provider *Provider
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithNotifier sets the sink refresh and export outcomes are sent to.
func WithNotifier(n notify.Sink) ModuleOption {
	return func(m *Module) { m.notifier = n }
}

// WithMetrics registers provider metrics with reg.
func WithMetrics(reg prometheus.Registerer) ModuleOption {
	return func(m *Module) { m.reg = reg }
}

// WithSource replaces the configured telemetry source.
func WithSource(s telemetry.Source) ModuleOption {
	return func(m *Module) { m.source = s }
}

// WithProviderOptions passes extra options to the Provider built in Init.
func WithProviderOptions(opts ...Option) ModuleOption {
	return func(m *Module) { m.opts = append(m.opts, opts...) }
}

// NewModule creates the network plugin.
func NewModule(opts ...ModuleOption) *Module {
	m := &Module{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "network",
		Version:     "0.1.0",
		Description: "Network data provider: telemetry snapshot, refresh and export",
		Required:    true,
		APIVersion:  plugin.APIVersion,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("network config: %w", err)
		}
	}

	src := m.source
	if src == nil {
		src = m.cfg.Source(m.logger)
	}

	opts := []Option{
		WithInterval(m.cfg.RefreshInterval),
		WithLogger(m.logger),
	}
	if deps.Bus != nil {
		opts = append(opts, WithPublisher(deps.Bus))
	}
	if m.reg != nil {
		opts = append(opts, WithRegisterer(m.reg))
	}
	opts = append(opts, m.opts...)

	m.provider = New(src, m.notifier, opts...)
	m.provider.SetAutoRefresh(m.cfg.AutoRefresh)
	m.logger.Info("network module initialized",
		zap.Duration("refresh_interval", m.provider.Interval()),
		zap.Int("snmp_targets", len(m.cfg.SNMP.Targets)),
		zap.String("ping_target", m.cfg.Ping.Target),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

func (m *Module) Start(ctx context.Context) error {
	return m.provider.Start(ctx)
}

// Stop halts the schedule and waits for queued notifications and events.
func (m *Module) Stop(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	m.provider.Stop()
	return m.provider.Drain(ctx)
}

// Provider returns the provider built in Init, or nil before Init.
func (m *Module) Provider() *Provider { return m.provider }

// Health implements plugin.HealthChecker. Data older than three refresh
// intervals is reported as degraded.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	if m.provider == nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: "not initialized"}
	}
	snap := m.provider.Snapshot()
	if snap == nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: ErrNoSnapshot.Error()}
	}
	age := m.provider.clock.Since(snap.LastUpdated)
	details := map[string]string{
		"sequence":     fmt.Sprintf("%d", snap.Sequence),
		"last_updated": snap.LastUpdated.UTC().Format(time.RFC3339),
		"auto_refresh": fmt.Sprintf("%t", m.provider.AutoRefresh()),
	}
	if m.provider.AutoRefresh() && age > 3*m.provider.Interval() {
		return plugin.HealthStatus{Status: "degraded", Message: "network data is stale", Details: details}
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}
