package provider

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Start refreshes once, then every interval until Stop. A failed initial
// refresh is not fatal: the schedule starts anyway and Start returns nil.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrAlreadyStarted
	}

	if _, err := p.Refresh(ctx); err != nil {
		p.logger.Warn("initial network refresh failed", zap.Error(err))
	}

	// The ticker must exist before Start returns so a clock advanced
	// immediately afterwards is observed.
	ticker := p.clock.NewTicker(p.interval)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, ticker.Chan(), ticker.Stop, p.done)

	p.logger.Info("network provider started", zap.Duration("interval", p.interval))
	return nil
}

func (p *Provider) run(ctx context.Context, tick <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if !p.auto.Load() {
				continue
			}
			// A Stop racing with this tick wins.
			if ctx.Err() != nil {
				return
			}
			if _, err := p.Refresh(context.WithoutCancel(ctx)); err != nil {
				p.logger.Debug("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

// Stop cancels the schedule and waits for the scheduler to exit, including
// a scheduled refresh already in flight. No scheduled refresh starts after
// Stop returns. Stop on a stopped provider
// is a no-op.
func (p *Provider) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("network provider stopped")
}

// Running reports whether the schedule is active.
func (p *Provider) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// SetAutoRefresh pauses or resumes scheduled refreshes. Manual refreshes
// are unaffected.
func (p *Provider) SetAutoRefresh(on bool) {
	if p.auto.Swap(on) != on {
		p.logger.Info("auto refresh changed", zap.Bool("enabled", on))
	}
}

// AutoRefresh reports whether scheduled refreshes are enabled.
func (p *Provider) AutoRefresh() bool { return p.auto.Load() }
