package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/netscope/internal/config"
	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/telemetry"
	"github.com/HerbHall/netscope/internal/testutil"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/HerbHall/netscope/pkg/plugin/plugintest"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin {
		return NewModule(WithSource(telemetry.NewMockSource(telemetry.WithSeed(1))))
	}, nil)
}

func TestModule_InitFromConfig(t *testing.T) {
	v := viper.New()
	v.Set("plugins.network.refresh_interval", "10s")
	v.Set("plugins.network.auto_refresh", false)
	v.Set("plugins.network.seed", 42)
	v.Set("plugins.network.counts.devices", 4)
	cfg := config.New(v)

	m := NewModule()
	require.NoError(t, m.Init(context.Background(), plugin.Dependencies{
		Config: cfg.ForPlugin("network"),
		Logger: testutil.Logger(t),
		Bus:    testutil.NewMockBus(),
	}))
	require.NoError(t, m.ValidateConfig())

	p := m.Provider()
	assert.Equal(t, 10*time.Second, p.Interval())
	assert.False(t, p.AutoRefresh())

	snap, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Devices, 4)
	assert.Len(t, snap.Traffic, telemetry.DefaultCounts.Traffic)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"interval too short", func(c *Config) { c.RefreshInterval = 100 * time.Millisecond }, "refresh_interval"},
		{"negative count", func(c *Config) { c.Counts.Devices = -1 }, "counts"},
		{"snmp without address", func(c *Config) { c.SNMP.Targets = []telemetry.SNMPTarget{{Name: "sw"}} }, "address"},
		{"snmp bad version", func(c *Config) { c.SNMP.Targets = []telemetry.SNMPTarget{{Address: "10.0.0.1", Version: "1"}} }, "version"},
		{"ping without count", func(c *Config) { c.Ping.Target = "10.0.0.1"; c.Ping.Count = 0 }, "ping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_SourceDecorators(t *testing.T) {
	c := DefaultConfig()
	_, ok := c.Source(testutil.Logger(t)).(*telemetry.MockSource)
	assert.True(t, ok, "no snmp or ping means plain mock")

	c.SNMP.Targets = []telemetry.SNMPTarget{{Address: "10.0.0.1"}}
	_, ok = c.Source(testutil.Logger(t)).(*telemetry.SNMPSource)
	assert.True(t, ok)

	c.Ping.Target = "10.0.0.1"
	ps, ok := c.Source(testutil.Logger(t)).(*telemetry.PingSource)
	require.True(t, ok)
	_, ok = ps.Source.(*telemetry.SNMPSource)
	assert.True(t, ok, "ping wraps snmp")
}

func TestModule_Health(t *testing.T) {
	fc := clockwork.NewFakeClockAt(testutil.Epoch)
	m := NewModule(
		WithSource(telemetry.NewMockSource(telemetry.WithSeed(3), telemetry.WithClock(fc))),
		WithProviderOptions(WithClock(fc)),
	)
	require.NoError(t, m.Init(context.Background(), plugin.Dependencies{Logger: testutil.Logger(t)}))
	assert.Equal(t, "unhealthy", m.Health(context.Background()).Status)

	_, err := m.Provider().Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", m.Health(context.Background()).Status)

	fc.Advance(4 * DefaultInterval)
	assert.Equal(t, "degraded", m.Health(context.Background()).Status)
}

// newServer mounts the module routes the way the HTTP server does, with the
// provider installed by Middleware.
func newServer(t *testing.T, refresh bool) (*Module, *notify.Recorder, http.Handler) {
	t.Helper()
	fc := clockwork.NewFakeClockAt(testutil.Epoch)
	rec := &notify.Recorder{}
	m := NewModule(
		WithSource(telemetry.NewMockSource(telemetry.WithSeed(11), telemetry.WithClock(fc))),
		WithNotifier(rec),
		WithProviderOptions(WithClock(fc)),
	)
	require.NoError(t, m.Init(context.Background(), plugin.Dependencies{Logger: testutil.Logger(t)}))
	if refresh {
		_, err := m.Provider().Refresh(context.Background())
		require.NoError(t, err)
	}
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/network"+r.Path, r.Handler)
	}
	return m, rec, Middleware(m.Provider())(mux)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandleSnapshot(t *testing.T) {
	_, _, h := newServer(t, false)
	w := do(t, h, "GET", "/api/v1/network/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SnapshotResponse](t, w)
	assert.Nil(t, resp.Snapshot)
	assert.Nil(t, resp.LastUpdated)
	assert.Equal(t, "30s", resp.Interval)

	_, _, h = newServer(t, true)
	resp = decode[SnapshotResponse](t, do(t, h, "GET", "/api/v1/network/snapshot"))
	require.NotNil(t, resp.Snapshot)
	assert.Len(t, resp.Snapshot.Devices, 10)
	assert.True(t, resp.LastUpdated.Equal(testutil.Epoch))
}

func TestHandlers_NoSnapshot(t *testing.T) {
	_, _, h := newServer(t, false)
	for _, path := range []string{"/traffic", "/latency", "/protocols", "/devices", "/devices/device-1", "/performance", "/incidents", "/status", "/stats", "/export"} {
		w := do(t, h, "GET", "/api/v1/network"+path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"), path)
	}
}

func TestHandlers_WithoutProvider(t *testing.T) {
	m, _, _ := newServer(t, true)
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/network"+r.Path, r.Handler)
	}
	w := do(t, mux, "GET", "/api/v1/network/devices")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), ErrNoProvider.Error())
}

func TestHandleTraffic(t *testing.T) {
	_, _, h := newServer(t, true)
	tests := []struct {
		query string
		want  int
	}{
		{"", 18},
		{"?range=1h", 12},
		{"?range=24h", 24},
	}
	for _, tt := range tests {
		resp := decode[TrafficResponse](t, do(t, h, "GET", "/api/v1/network/traffic"+tt.query))
		assert.Len(t, resp.Samples, tt.want, tt.query)
	}
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/v1/network/traffic?range=7d").Code)
}

func TestHandleDevices(t *testing.T) {
	m, _, h := newServer(t, true)
	snap := m.Provider().Snapshot()

	resp := decode[DeviceListResponse](t, do(t, h, "GET", "/api/v1/network/devices?sort=latency"))
	assert.Equal(t, 10, resp.Total)
	assert.Equal(t, 10, resp.Matched)
	require.Len(t, resp.Devices, 10)
	for i := 1; i < len(resp.Devices); i++ {
		assert.LessOrEqual(t, resp.Devices[i-1].LatencyMs, resp.Devices[i].LatencyMs)
	}
	assert.NotEmpty(t, resp.Devices[0].SeenAgo)

	target := snap.Devices[3]
	resp = decode[DeviceListResponse](t, do(t, h, "GET", "/api/v1/network/devices?search="+target.IPAddress))
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, target.ID, resp.Devices[0].ID)
	assert.Equal(t, 1, resp.Matched, "matched counts filtered rows")
	assert.Equal(t, 10, resp.Total, "total counts the inventory")

	resp = decode[DeviceListResponse](t, do(t, h, "GET", "/api/v1/network/devices?search=no-such-device"))
	assert.Empty(t, resp.Devices)
	assert.Zero(t, resp.Matched)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/v1/network/devices?sort=uptime").Code)
}

func TestHandleDevice(t *testing.T) {
	m, _, h := newServer(t, true)
	d := m.Provider().Snapshot().Devices[0]

	detail := decode[DeviceDetail](t, do(t, h, "GET", "/api/v1/network/devices/"+d.ID))
	assert.Equal(t, d.ID, detail.ID)
	assert.NotNil(t, detail.Incidents)
	for _, inc := range detail.Incidents {
		assert.Equal(t, d.ID, inc.DeviceID)
	}
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/v1/network/devices/nope").Code)
}

func TestHandlePerformance(t *testing.T) {
	m, _, h := newServer(t, true)
	snap := m.Provider().Snapshot()

	all := decode[PerformanceResponse](t, do(t, h, "GET", "/api/v1/network/performance"))
	assert.Len(t, all.Devices, len(snap.Devices))

	one := decode[PerformanceResponse](t, do(t, h, "GET", "/api/v1/network/performance?device="+snap.Devices[0].ID))
	require.Len(t, one.Devices, 1)
	assert.Equal(t, one.Devices[0].Score, one.AverageScore)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/v1/network/performance?device=nope").Code)
}

func TestHandleIncidents(t *testing.T) {
	_, _, h := newServer(t, true)
	all := decode[IncidentListResponse](t, do(t, h, "GET", "/api/v1/network/incidents"))
	assert.Equal(t, 5, all.Counts.All)
	assert.Equal(t, all.Counts.All, all.Counts.Active+all.Counts.Resolved)

	active := decode[IncidentListResponse](t, do(t, h, "GET", "/api/v1/network/incidents?status=active"))
	assert.Len(t, active.Incidents, all.Counts.Active)
	for _, inc := range active.Incidents {
		assert.Equal(t, models.IncidentStatusActive, inc.Status)
	}
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/v1/network/incidents?status=open").Code)
}

func TestHandleStatusAndStats(t *testing.T) {
	m, _, h := newServer(t, true)
	ns := m.Provider().Snapshot().NetworkStatus

	status := decode[map[string]any](t, do(t, h, "GET", "/api/v1/network/status"))
	assert.Equal(t, float64(ns.DevicesTotal), status["devices_total"])
	assert.Equal(t, string(ns.OverallStatus), status["overall_status"])

	stats := decode[StatsResponse](t, do(t, h, "GET", "/api/v1/network/stats"))
	require.Len(t, stats.Cards, 4)
	assert.True(t, strings.HasSuffix(stats.Cards[0].Value, "/s"))
}

func TestHandleRefresh(t *testing.T) {
	m, rec, h := newServer(t, true)
	w := do(t, h, "POST", "/api/v1/network/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[RefreshResponse](t, w)
	assert.Equal(t, uint64(2), resp.Sequence)
	assert.Equal(t, 10, resp.Counts.Devices)
	assert.Same(t, m.Provider().Snapshot(), m.Provider().Snapshot())
	require.NoError(t, m.Provider().Drain(context.Background()))
	assert.Equal(t, 2, rec.Count("Data refreshed"))
}

func TestHandleExport(t *testing.T) {
	m, rec, h := newServer(t, true)

	w := do(t, h, "GET", "/api/v1/network/export?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "network-data-2026-01-15T10-30-00.csv")
	assert.Contains(t, w.Body.String(), "# devices")

	w = do(t, h, "GET", "/api/v1/network/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = do(t, h, "GET", "/api/v1/network/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Stop delivers everything queued before returning.
	require.NoError(t, m.Stop(context.Background()))
	assert.Equal(t, 1, rec.Count("Export failed"))
	assert.Equal(t, 2, rec.Count("Export successful"))
}
