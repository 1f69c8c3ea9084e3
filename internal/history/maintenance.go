package history

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startMaintenance launches a goroutine that prunes rows older than the
// retention window on every maintenance tick.
func (m *Module) startMaintenance(ctx context.Context) {
	ticker := m.clock.NewTicker(m.cfg.MaintenanceInterval)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				m.runMaintenance(ctx)
			}
		}
	}()
}

// runMaintenance executes a single pruning cycle.
func (m *Module) runMaintenance(ctx context.Context) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := m.clock.Now().Add(-m.cfg.Retention)
	samples, events, err := m.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		m.logger.Warn("history maintenance failed", zap.Error(err))
		return
	}
	if samples > 0 || events > 0 {
		m.logger.Info("purged old history",
			zap.Int64("samples", samples),
			zap.Int64("events", events),
			zap.Time("cutoff", cutoff),
		)
	}
}
