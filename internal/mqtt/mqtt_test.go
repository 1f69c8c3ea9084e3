package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/HerbHall/netscope/internal/config"
	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/internal/testutil"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/HerbHall/netscope/pkg/plugin/plugintest"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type message struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	err       error
	msgs      []message
}

func (c *fakeClient) Publish(topic string, _ byte, retain bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, message{topic: topic, retain: retain, payload: payload})
	return nil
}

func (c *fakeClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeClient) byTopic(topic string) []message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []message
	for _, m := range c.msgs {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeClient) withPrefix(prefix string) []message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []message
	for _, m := range c.msgs {
		if strings.HasPrefix(m.topic, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func startModule(t *testing.T, c *fakeClient, settings map[string]any) *Module {
	t.Helper()
	v := viper.New()
	for k, val := range settings {
		v.Set("plugins.mqtt."+k, val)
	}
	m := New(WithClient(c))
	deps := plugin.Dependencies{Config: config.New(v).ForPlugin("mqtt"), Logger: zap.NewNop()}
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop(context.Background()) })
	return m
}

func snapshotEvent(s *models.Snapshot) plugin.Event {
	return plugin.Event{Topic: provider.TopicSnapshotRefreshed, Source: "network", Timestamp: testutil.Epoch, Payload: s}
}

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() }, nil)
}

func TestInfo_ReturnsCorrectMetadata(t *testing.T) {
	info := New().Info()
	if info.Name != "mqtt" {
		t.Errorf("Name = %q, want mqtt", info.Name)
	}
	if len(info.Dependencies) != 1 || info.Dependencies[0] != "network" {
		t.Errorf("Dependencies = %v, want [network]", info.Dependencies)
	}
}

func TestSubscriptions_ReturnsExpectedTopics(t *testing.T) {
	subs := New().Subscriptions()
	want := map[string]bool{
		provider.TopicSnapshotRefreshed: true,
		provider.TopicRefreshFailed:     true,
		notify.TopicToast:               true,
	}
	if len(subs) != len(want) {
		t.Fatalf("Subscriptions() returned %d, want %d", len(subs), len(want))
	}
	for _, s := range subs {
		if !want[s.Topic] {
			t.Errorf("unexpected subscription %q", s.Topic)
		}
	}
}

func TestInit_RejectsBadQoS(t *testing.T) {
	v := viper.New()
	v.Set("plugins.mqtt.qos", 3)
	err := New().Init(context.Background(), plugin.Dependencies{Config: config.New(v).ForPlugin("mqtt"), Logger: zap.NewNop()})
	if err == nil {
		t.Error("expected error for qos 3")
	}
}

func TestHealth(t *testing.T) {
	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatal(err)
	}
	if h := m.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("no broker: status = %q, want healthy", h.Status)
	}

	c := &fakeClient{}
	m = startModule(t, c, nil)
	if h := m.Health(context.Background()); h.Status != "degraded" {
		t.Errorf("disconnected: status = %q, want degraded", h.Status)
	}
	c.connected = true
	if h := m.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("connected: status = %q, want healthy", h.Status)
	}
}

func TestHandleSnapshot_PublishesStatusAndDevices(t *testing.T) {
	c := &fakeClient{connected: true}
	m := startModule(t, c, map[string]any{"topic_prefix": "lab"})
	snap := testutil.NewSnapshot()

	m.handleSnapshot(context.Background(), snapshotEvent(snap))

	status := c.byTopic("lab/status")
	if len(status) != 1 || !status[0].retain {
		t.Fatalf("lab/status messages = %+v", status)
	}
	var ns models.NetworkStatus
	if err := json.Unmarshal(status[0].payload, &ns); err != nil {
		t.Fatal(err)
	}
	if ns != snap.NetworkStatus {
		t.Errorf("status = %+v, want %+v", ns, snap.NetworkStatus)
	}
	if got := c.byTopic("lab/status/overall"); len(got) != 1 || string(got[0].payload) != "degraded" {
		t.Errorf("overall = %+v", got)
	}
	if got := c.byTopic("lab/stats"); len(got) != 1 {
		t.Errorf("stats messages = %d, want 1", len(got))
	}
	if got := c.byTopic("lab/device/device-2/status"); len(got) != 1 || string(got[0].payload) != "warning" {
		t.Errorf("device-2 status = %+v", got)
	}
	if got := c.byTopic("lab/device/device-1/bandwidth"); len(got) != 1 || string(got[0].payload) != "6000000" {
		t.Errorf("device-1 bandwidth = %+v", got)
	}
	if got := c.byTopic("lab/device/device-2/latency"); len(got) != 1 || string(got[0].payload) != "40" {
		t.Errorf("device-2 latency = %+v", got)
	}
	if got := c.withPrefix("homeassistant/"); len(got) != 0 {
		t.Errorf("discovery published while disabled: %d", len(got))
	}
}

func TestHandleSnapshot_HADiscoveryLifecycle(t *testing.T) {
	c := &fakeClient{connected: true}
	m := startModule(t, c, map[string]any{"ha_discovery": true})

	first := testutil.NewSnapshot()
	m.handleSnapshot(context.Background(), snapshotEvent(first))
	// 3 sensors per device plus the network sensor.
	if got := len(c.withPrefix("homeassistant/")); got != 3*len(first.Devices)+1 {
		t.Fatalf("discovery configs = %d, want %d", got, 3*len(first.Devices)+1)
	}

	// Announced once, not on every refresh.
	m.handleSnapshot(context.Background(), snapshotEvent(first))
	if got := len(c.withPrefix("homeassistant/")); got != 3*len(first.Devices)+1 {
		t.Errorf("discovery configs after second refresh = %d", got)
	}

	second := testutil.NewSnapshot(func(s *models.Snapshot) { s.Devices = s.Devices[:2] })
	m.handleSnapshot(context.Background(), snapshotEvent(second))
	removed := c.withPrefix("homeassistant/sensor/netscope_device_3/")
	var empty int
	for _, msg := range removed {
		if len(msg.payload) == 0 {
			empty++
		}
	}
	if empty != 3 {
		t.Errorf("removal configs for device-3 = %d, want 3", empty)
	}
	last := c.byTopic("netscope/device/device-3/status")
	if len(last) == 0 || string(last[len(last)-1].payload) != "offline" {
		t.Errorf("device-3 final status = %+v", last)
	}
}

func TestHandleSnapshot_DisconnectedDrops(t *testing.T) {
	c := &fakeClient{}
	m := startModule(t, c, nil)
	m.handleSnapshot(context.Background(), snapshotEvent(testutil.NewSnapshot()))
	if len(c.msgs) != 0 {
		t.Errorf("published %d messages while disconnected", len(c.msgs))
	}
}

func TestHandleSnapshot_PublishErrorIsLogged(t *testing.T) {
	logger, logs := testutil.ObservedLogger()
	c := &fakeClient{connected: true, err: errors.New("broker gone")}
	m := New(WithClient(c))
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: logger}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.handleSnapshot(context.Background(), snapshotEvent(testutil.NewSnapshot()))
	if logs.FilterMessage("mqtt publish failed").Len() == 0 {
		t.Error("expected publish failures to be logged")
	}
}

func TestHandleFailureAndToast(t *testing.T) {
	c := &fakeClient{connected: true}
	m := startModule(t, c, nil)

	m.handleFailure(context.Background(), plugin.Event{
		Topic:   provider.TopicRefreshFailed,
		Payload: provider.RefreshFailure{Error: "source down", At: testutil.Epoch},
	})
	got := c.byTopic("netscope/refresh/failed")
	if len(got) != 1 || got[0].retain {
		t.Fatalf("refresh/failed = %+v", got)
	}
	var f provider.RefreshFailure
	if err := json.Unmarshal(got[0].payload, &f); err != nil || f.Error != "source down" {
		t.Errorf("failure payload = %s (%v)", got[0].payload, err)
	}

	n := notify.New("Data refreshed", "ok", models.NotificationDefault, testutil.Epoch)
	m.handleToast(context.Background(), plugin.Event{Topic: notify.TopicToast, Payload: n})
	toasts := c.byTopic("netscope/notification")
	if len(toasts) != 1 {
		t.Fatalf("notification messages = %d, want 1", len(toasts))
	}
	var back notify.Notification
	if err := json.Unmarshal(toasts[0].payload, &back); err != nil || back.ID != n.ID {
		t.Errorf("toast payload = %s (%v)", toasts[0].payload, err)
	}

	// Wrong payload types are ignored.
	m.handleToast(context.Background(), plugin.Event{Topic: notify.TopicToast, Payload: "nope"})
	if len(c.byTopic("netscope/notification")) != 1 {
		t.Error("string payload should be ignored")
	}
}

func TestStop_ClosesClient(t *testing.T) {
	c := &fakeClient{connected: true}
	m := New(WithClient(c))
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !c.closed {
		t.Error("client not closed")
	}
}
