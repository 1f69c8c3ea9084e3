package event

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

func TestPublish_TopicAndWildcard(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var topic, all int
	bus.Subscribe("network.snapshot.refreshed", func(context.Context, plugin.Event) { topic++ })
	bus.SubscribeAll(func(context.Context, plugin.Event) { all++ })

	ctx := context.Background()
	_ = bus.Publish(ctx, plugin.Event{Topic: "network.snapshot.refreshed"})
	_ = bus.Publish(ctx, plugin.Event{Topic: "notify.toast"})

	if topic != 1 {
		t.Errorf("topic handler = %d, want 1", topic)
	}
	if all != 2 {
		t.Errorf("wildcard handler = %d, want 2", all)
	}
}

func TestPublish_StampsTimestamp(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var got plugin.Event
	bus.Subscribe("x", func(_ context.Context, e plugin.Event) { got = e })
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "x"})
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var n int
	unsub := bus.Subscribe("x", func(context.Context, plugin.Event) { n++ })
	unsubAll := bus.SubscribeAll(func(context.Context, plugin.Event) { n++ })
	unsub()
	unsubAll()
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "x"})
	if n != 0 {
		t.Errorf("handlers ran %d times after unsubscribe", n)
	}
}

func TestPanickingHandlerIsContained(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var after bool
	bus.Subscribe("x", func(context.Context, plugin.Event) { panic("boom") })
	bus.Subscribe("x", func(context.Context, plugin.Event) { after = true })
	if err := bus.Publish(context.Background(), plugin.Event{Topic: "x"}); err != nil {
		t.Fatal(err)
	}
	if !after {
		t.Error("second handler did not run")
	}
}

func TestPublishAsync_Drain(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		bus.Subscribe("x", func(context.Context, plugin.Event) { n.Add(1) })
	}
	bus.PublishAsync(context.Background(), plugin.Event{Topic: "x"})
	bus.Drain()
	if n.Load() != 5 {
		t.Errorf("handlers = %d, want 5", n.Load())
	}
}
