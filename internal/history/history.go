// Package history records one aggregate sample per network refresh and an
// event whenever the overall status changes or a refresh fails. It backs the
// History page.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
)

// Config holds history settings (plugins.history).
type Config struct {
	Retention           time.Duration `mapstructure:"retention"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
}

// DefaultConfig keeps 30 days and prunes hourly.
func DefaultConfig() Config {
	return Config{
		Retention:           720 * time.Hour,
		MaintenanceInterval: time.Hour,
	}
}

// Module is the history plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	store  *Store
	clock  clockwork.Clock

	mu         sync.Mutex
	lastStatus models.OverallStatus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Module.
type Option func(*Module)

// WithClock sets the clock driving the maintenance ticker and retention
// cutoff.
func WithClock(c clockwork.Clock) Option {
	return func(m *Module) { m.clock = c }
}

// New creates the history plugin.
func New(opts ...Option) *Module {
	m := &Module{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "history",
		Version:      "0.1.0",
		Description:  "Network status history and events",
		Dependencies: []string{"network"},
		APIVersion:   plugin.APIVersion,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("history config: %w", err)
		}
	}
	if err := m.ValidateConfig(); err != nil {
		return err
	}
	if deps.Store == nil {
		return errors.New("history requires a store")
	}
	if err := deps.Store.Migrate(ctx, "history", migrations()); err != nil {
		return fmt.Errorf("history migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())

	last, err := m.store.LastStatus(ctx)
	if err != nil {
		return err
	}
	m.lastStatus = last

	m.logger.Info("history module initialized",
		zap.Duration("retention", m.cfg.Retention),
		zap.Duration("maintenance_interval", m.cfg.MaintenanceInterval),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.Retention <= 0 {
		return fmt.Errorf("history retention must be positive, got %s", m.cfg.Retention)
	}
	if m.cfg.MaintenanceInterval <= 0 {
		return fmt.Errorf("history maintenance_interval must be positive, got %s", m.cfg.MaintenanceInterval)
	}
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.startMaintenance(ctx)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	return nil
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: provider.TopicSnapshotRefreshed, Handler: m.handleSnapshot},
		{Topic: provider.TopicRefreshFailed, Handler: m.handleFailure},
	}
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if m.store == nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: "not initialized"}
	}
	if err := m.store.db.PingContext(ctx); err != nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: err.Error()}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return plugin.HealthStatus{
		Status:  "healthy",
		Details: map[string]string{"last_status": string(m.lastStatus)},
	}
}

// Record stores a sample for snap and, when the overall status differs from
// the previous sample, a status change event.
func (m *Module) Record(ctx context.Context, snap *models.Snapshot) error {
	smp := SampleFromSnapshot(snap)
	if err := m.store.InsertSample(ctx, &smp); err != nil {
		return err
	}

	m.mu.Lock()
	prev := m.lastStatus
	m.lastStatus = smp.OverallStatus
	m.mu.Unlock()

	if prev == smp.OverallStatus {
		return nil
	}
	return m.store.InsertEvent(ctx, &Event{
		ID:         uuid.New().String(),
		Kind:       EventStatusChange,
		OccurredAt: snap.LastUpdated,
		Status:     string(smp.OverallStatus),
		Previous:   string(prev),
		Message:    statusMessage(prev, smp.OverallStatus),
	})
}

func statusMessage(prev, cur models.OverallStatus) string {
	if prev == "" {
		return "Network status is " + cur.Label()
	}
	return fmt.Sprintf("Network status changed from %s to %s", prev.Label(), cur.Label())
}

func (m *Module) handleSnapshot(ctx context.Context, event plugin.Event) {
	snap, ok := event.Payload.(*models.Snapshot)
	if !ok || snap == nil || m.store == nil {
		return
	}
	if err := m.Record(ctx, snap); err != nil {
		m.logger.Warn("failed to record history sample",
			zap.Uint64("sequence", snap.Sequence),
			zap.Error(err),
		)
	}
}

func (m *Module) handleFailure(ctx context.Context, event plugin.Event) {
	f, ok := event.Payload.(provider.RefreshFailure)
	if !ok || m.store == nil {
		return
	}
	err := m.store.InsertEvent(ctx, &Event{
		ID:         uuid.New().String(),
		Kind:       EventRefreshFailed,
		OccurredAt: f.At,
		Message:    f.Error,
	})
	if err != nil {
		m.logger.Warn("failed to record refresh failure", zap.Error(err))
	}
}
