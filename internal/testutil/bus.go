package testutil

import (
	"context"
	"sync"

	"github.com/HerbHall/netscope/pkg/plugin"
)

var _ plugin.EventBus = (*MockBus)(nil)

// MockBus records every published event and dispatches synchronously to
// subscribers, including events sent with PublishAsync.
type MockBus struct {
	mu     sync.Mutex
	events []plugin.Event
	subs   map[string]map[int]plugin.EventHandler
	all    map[int]plugin.EventHandler
	nextID int
}

// NewMockBus creates an empty recording bus.
func NewMockBus() *MockBus {
	return &MockBus{
		subs: make(map[string]map[int]plugin.EventHandler),
		all:  make(map[int]plugin.EventHandler),
	}
}

func (b *MockBus) Publish(ctx context.Context, e plugin.Event) error {
	b.mu.Lock()
	b.events = append(b.events, e)
	handlers := make([]plugin.EventHandler, 0, len(b.subs[e.Topic])+len(b.all))
	for _, h := range b.subs[e.Topic] {
		handlers = append(handlers, h)
	}
	for _, h := range b.all {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, e)
	}
	return nil
}

func (b *MockBus) PublishAsync(ctx context.Context, e plugin.Event) {
	_ = b.Publish(ctx, e)
}

func (b *MockBus) Subscribe(topic string, h plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]plugin.EventHandler)
	}
	b.subs[topic][id] = h
	return func() {
		b.mu.Lock()
		delete(b.subs[topic], id)
		b.mu.Unlock()
	}
}

func (b *MockBus) SubscribeAll(h plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.all[id] = h
	return func() {
		b.mu.Lock()
		delete(b.all, id)
		b.mu.Unlock()
	}
}

// Events returns a copy of every recorded event.
func (b *MockBus) Events() []plugin.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]plugin.Event, len(b.events))
	copy(out, b.events)
	return out
}

// Topic returns the recorded events published on topic.
func (b *MockBus) Topic(topic string) []plugin.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []plugin.Event
	for _, e := range b.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
