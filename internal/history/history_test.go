package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HerbHall/netscope/internal/provider"
	"github.com/HerbHall/netscope/internal/testutil"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/HerbHall/netscope/pkg/plugin/plugintest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeDeps(t *testing.T, name string) plugin.Dependencies {
	return plugin.Dependencies{Logger: testutil.Logger(t).Named(name), Store: testutil.NewStore(t)}
}

func newModule(t *testing.T) (*Module, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testutil.Epoch)
	m := New(WithClock(clock))
	require.NoError(t, m.Init(context.Background(), storeDeps(t, "history")))
	return m, clock
}

func snapshotAt(seq uint64, at time.Time, status models.OverallStatus) *models.Snapshot {
	return testutil.NewSnapshot(func(s *models.Snapshot) {
		s.Sequence = seq
		s.LastUpdated = at
		s.NetworkStatus.OverallStatus = status
	})
}

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() }, storeDeps)
}

func TestInit_RequiresStore(t *testing.T) {
	err := New().Init(context.Background(), plugin.Dependencies{Logger: testutil.Logger(t)})
	assert.Error(t, err)
}

func TestSampleFromSnapshot(t *testing.T) {
	s := testutil.NewSnapshot()
	s.StatusStats.Latency.Value = 11.5
	smp := SampleFromSnapshot(s)

	assert.Equal(t, int64(5_000_000+2_000_000+100_000), smp.BytesIn)
	assert.Equal(t, int64(1_000_000+500_000+50_000), smp.BytesOut)
	assert.InDelta(t, 0.75, smp.AvgPacketLoss, 1e-9) // (1.5+1+0.5+0)/4
	assert.Equal(t, 11.5, smp.AvgLatencyMs)
	assert.Equal(t, 1, smp.DevicesOnline)
	assert.Equal(t, 3, smp.DevicesTotal)
	assert.Equal(t, models.OverallDegraded, smp.OverallStatus)
	assert.Equal(t, s.LastUpdated, smp.RecordedAt)
}

func TestRecord_StatusChangeEvents(t *testing.T) {
	m, _ := newModule(t)
	ctx := context.Background()

	statuses := []models.OverallStatus{
		models.OverallHealthy, models.OverallHealthy, models.OverallDegraded,
		models.OverallDegraded, models.OverallCritical,
	}
	for i, st := range statuses {
		require.NoError(t, m.Record(ctx, snapshotAt(uint64(i+1), testutil.Epoch.Add(time.Duration(i)*30*time.Second), st)))
	}

	samples, err := m.store.ListSamples(ctx, testutil.Epoch.Add(-time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, samples, len(statuses))
	assert.Equal(t, uint64(1), samples[0].Sequence, "oldest first")

	events, err := m.store.ListEvents(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "critical", events[0].Status, "newest first")
	assert.Equal(t, "degraded", events[0].Previous)
	assert.Equal(t, "Network status changed from Degraded to Critical", events[0].Message)
	assert.Equal(t, "", events[2].Previous)
}

func TestInit_ResumesLastStatus(t *testing.T) {
	deps := storeDeps(t, "history")
	ctx := context.Background()

	first := New()
	require.NoError(t, first.Init(ctx, deps))
	require.NoError(t, first.Record(ctx, snapshotAt(1, testutil.Epoch, models.OverallHealthy)))

	second := New()
	require.NoError(t, second.Init(ctx, deps))
	require.NoError(t, second.Record(ctx, snapshotAt(2, testutil.Epoch.Add(time.Minute), models.OverallHealthy)))

	events, err := second.store.ListEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1, "unchanged status after restart is not an event")
}

func TestSubscriptions_RecordFromBus(t *testing.T) {
	m, _ := newModule(t)
	bus := testutil.NewMockBus()
	for _, s := range m.Subscriptions() {
		bus.Subscribe(s.Topic, s.Handler)
	}
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, plugin.Event{
		Topic:   provider.TopicSnapshotRefreshed,
		Payload: snapshotAt(1, testutil.Epoch, models.OverallHealthy),
	}))
	require.NoError(t, bus.Publish(ctx, plugin.Event{
		Topic:   provider.TopicRefreshFailed,
		Payload: provider.RefreshFailure{Error: "source down", At: testutil.Epoch.Add(time.Minute)},
	}))

	events, err := m.store.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventRefreshFailed, events[0].Kind)
	assert.Equal(t, "source down", events[0].Message)
	assert.Equal(t, EventStatusChange, events[1].Kind)
}

func TestMaintenance_PrunesOldRows(t *testing.T) {
	m, clock := newModule(t)
	ctx := context.Background()

	require.NoError(t, m.Record(ctx, snapshotAt(1, testutil.Epoch.Add(-800*time.Hour), models.OverallHealthy)))
	require.NoError(t, m.Record(ctx, snapshotAt(2, testutil.Epoch, models.OverallCritical)))

	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Hour)

	testutil.WaitFor(t, 2*time.Second, func() bool {
		samples, err := m.store.ListSamples(ctx, time.Time{}, 100)
		return err == nil && len(samples) == 1
	}, "old sample pruned")

	events, err := m.store.ListEvents(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, events, 1, "only the recent status change survives")
}

func TestValidateConfig(t *testing.T) {
	m := New()
	m.cfg = Config{Retention: 0, MaintenanceInterval: time.Hour}
	assert.Error(t, m.ValidateConfig())
	m.cfg = Config{Retention: time.Hour, MaintenanceInterval: 0}
	assert.Error(t, m.ValidateConfig())
	m.cfg = DefaultConfig()
	assert.NoError(t, m.ValidateConfig())
}

func TestHealth(t *testing.T) {
	assert.Equal(t, "unhealthy", New().Health(context.Background()).Status)

	m, _ := newModule(t)
	require.NoError(t, m.Record(context.Background(), snapshotAt(1, testutil.Epoch, models.OverallDegraded)))
	h := m.Health(context.Background())
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "degraded", h.Details["last_status"])
}

func serve(m *Module) http.Handler {
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/history"+r.Path, r.Handler)
	}
	return mux
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandleSamples(t *testing.T) {
	m, _ := newModule(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Record(ctx, snapshotAt(uint64(i+1), testutil.Epoch.Add(-time.Duration(4-i)*time.Hour), models.OverallHealthy)))
	}
	h := serve(m)

	w := get(h, "/api/v1/history/samples")
	require.Equal(t, http.StatusOK, w.Code)
	var resp SampleListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Samples, 5)
	assert.True(t, resp.Since.Equal(testutil.Epoch.Add(-24*time.Hour)))

	w = get(h, "/api/v1/history/samples?since="+testutil.Epoch.Add(-150*time.Minute).Format(time.RFC3339)+"&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	resp = SampleListResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Samples, 2)
	assert.Equal(t, uint64(4), resp.Samples[0].Sequence)
	assert.Equal(t, uint64(5), resp.Samples[1].Sequence)
}

func TestHandleEvents(t *testing.T) {
	m, _ := newModule(t)
	require.NoError(t, m.Record(context.Background(), snapshotAt(1, testutil.Epoch, models.OverallCritical)))

	w := get(serve(m), "/api/v1/history/events?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	var resp EventListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Network status is Critical", resp.Events[0].Message)
}

func TestHandlers_BadQuery(t *testing.T) {
	m, _ := newModule(t)
	h := serve(m)
	for _, target := range []string{
		"/api/v1/history/samples?limit=0",
		"/api/v1/history/samples?limit=abc",
		"/api/v1/history/samples?since=yesterday",
		"/api/v1/history/events?limit=5000",
	} {
		w := get(h, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"), target)
	}
}
