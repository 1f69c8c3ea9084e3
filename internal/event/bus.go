// Package event is the in-process publish/subscribe bus shared by plugins.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

var _ plugin.EventBus = (*Bus)(nil)

// Bus delivers events to topic and wildcard subscribers. Publish runs
// handlers on the caller's goroutine; PublishAsync runs each handler on its
// own goroutine and Drain waits for them.
type Bus struct {
	mu       sync.RWMutex
	topics   map[string][]subscriber
	wildcard []subscriber
	nextID   uint64
	inflight sync.WaitGroup
	logger   *zap.Logger
}

type subscriber struct {
	id uint64
	fn plugin.EventHandler
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		topics: make(map[string][]subscriber),
		logger: logger,
	}
}

// Publish delivers event synchronously. A zero Timestamp is stamped with the
// current time.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, s := range b.matching(event.Topic) {
		b.deliver(ctx, s.fn, event)
	}
	return nil
}

// PublishAsync delivers event with one goroutine per handler.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, s := range b.matching(event.Topic) {
		b.inflight.Add(1)
		go func(fn plugin.EventHandler) {
			defer b.inflight.Done()
			b.deliver(ctx, fn, event)
		}(s.fn)
	}
}

// Drain blocks until every handler started by PublishAsync has returned.
func (b *Bus) Drain() {
	b.inflight.Wait()
}

// Subscribe registers handler for one topic.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.topics[topic] = append(b.topics[topic], subscriber{id: id, fn: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.topics[topic] = without(b.topics[topic], id)
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.wildcard = append(b.wildcard, subscriber{id: id, fn: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = without(b.wildcard, id)
	}
}

// matching snapshots the subscribers for topic so handlers run unlocked.
func (b *Bus) matching(topic string) []subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]subscriber, 0, len(b.topics[topic])+len(b.wildcard))
	out = append(out, b.topics[topic]...)
	return append(out, b.wildcard...)
}

func (b *Bus) deliver(ctx context.Context, fn plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()
	fn(ctx, event)
}

func without(subs []subscriber, id uint64) []subscriber {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
