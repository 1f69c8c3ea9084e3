package provider

import (
	"context"
	"sync"

	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

// maxPendingEffects bounds the effect queue. Effects past the bound are
// dropped and logged.
const maxPendingEffects = 256

// effects runs bus publishes and notifications in order on one worker
// goroutine, off the refresh and export paths. The worker starts on demand
// and exits when the queue empties.
type effects struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	idle    chan struct{}
}

// enqueue schedules fn. It reports false when the queue is full.
func (e *effects) enqueue(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) >= maxPendingEffects {
		return false
	}
	e.queue = append(e.queue, fn)
	if !e.running {
		e.running = true
		e.idle = make(chan struct{})
		go e.run()
	}
	return true
}

func (e *effects) run() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			close(e.idle)
			e.mu.Unlock()
			return
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()
		fn()
	}
}

// wait blocks until the queue is empty and the worker has exited.
func (e *effects) wait(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		// Effects enqueued after idle closed start a new worker.
		return e.wait(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain blocks until every queued event publish and notification has been
// delivered, or ctx ends.
func (p *Provider) Drain(ctx context.Context) error {
	return p.effects.wait(ctx)
}

func (p *Provider) schedule(ctx context.Context, what string, fn func(context.Context)) {
	work := context.WithoutCancel(ctx)
	if !p.effects.enqueue(func() { fn(work) }) {
		p.metrics.dropped.Inc()
		p.logger.Warn("side effect dropped, queue full", zap.String("effect", what))
	}
}

// notify queues a notification. The timestamp is taken now, not at delivery.
func (p *Provider) notify(ctx context.Context, title, desc string, sev models.NotificationSeverity) {
	if p.notifier == nil {
		return
	}
	n := notify.New(title, desc, sev, p.clock.Now())
	p.schedule(ctx, "notify", func(ctx context.Context) {
		if err := p.notifier.Notify(ctx, n); err != nil {
			p.logger.Warn("notification failed", zap.String("title", title), zap.Error(err))
		}
	})
}

// publish queues an event for the bus.
func (p *Provider) publish(ctx context.Context, topic string, payload any) {
	if p.bus == nil {
		return
	}
	ev := plugin.Event{
		Topic:     topic,
		Source:    "network",
		Timestamp: p.clock.Now(),
		Payload:   payload,
	}
	p.schedule(ctx, "publish", func(ctx context.Context) {
		if err := p.bus.Publish(ctx, ev); err != nil {
			p.logger.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
		}
	})
}
