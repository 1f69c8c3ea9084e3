package view

import (
	"testing"
	"time"

	"github.com/HerbHall/netscope/internal/testutil"
	"github.com/HerbHall/netscope/pkg/models"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1234567, "1.18 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024 * 1024, "3072 TB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		latency, loss float64
		want          int
	}{
		{0, 0, 100},
		{10, 0.5, 85},
		{40, 2, 40},
		{80, 10, 0},
		{25, 1, 65},
	}
	for _, tt := range tests {
		d := models.Device{LatencyMs: tt.latency, PacketLoss: tt.loss}
		if got := PerformanceScore(d); got != tt.want {
			t.Errorf("PerformanceScore(lat=%v, loss=%v) = %d, want %d", tt.latency, tt.loss, got, tt.want)
		}
	}
}

func TestAverages(t *testing.T) {
	devices := []models.Device{
		{LatencyMs: 10, PacketLoss: 0},
		{LatencyMs: 21, PacketLoss: 0},
	}
	if got := AverageLatency(devices); got != 16 {
		t.Errorf("AverageLatency = %d, want 16", got)
	}
	// scores 90 and 79
	if got := AverageScore(devices); got != 85 {
		t.Errorf("AverageScore = %d, want 85", got)
	}
	if AverageLatency(nil) != 0 || AverageScore(nil) != 0 {
		t.Error("empty inventory should average to zero")
	}
}

func TestFilterDevices(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(1, testutil.WithName("Core Router"), testutil.WithIP("10.0.0.1")),
		testutil.NewDevice(2, testutil.WithName("Office Printer"), testutil.WithIP("10.0.1.20")),
		testutil.NewDevice(3, testutil.WithName("NAS"), testutil.WithIP("192.168.1.5")),
	}
	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"device-1", "device-2", "device-3"}},
		{"router", []string{"device-1"}},
		{"ROUTER", []string{"device-1"}},
		{"10.0.", []string{"device-1", "device-2"}},
		{"192.168", []string{"device-3"}},
		{"missing", nil},
	}
	for _, tt := range tests {
		got := FilterDevices(devices, tt.term)
		if len(got) != len(tt.want) {
			t.Errorf("FilterDevices(%q) returned %d devices, want %d", tt.term, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].ID != tt.want[i] {
				t.Errorf("FilterDevices(%q)[%d] = %s, want %s", tt.term, i, got[i].ID, tt.want[i])
			}
		}
	}
}

func TestSortDevices(t *testing.T) {
	devices := []models.Device{
		testutil.NewDevice(1, testutil.WithName("beta"), testutil.WithBandwidth(100, 0), testutil.WithLatency(30, 0), testutil.WithStatus(models.DeviceStatusWarning)),
		testutil.NewDevice(2, testutil.WithName("Alpha"), testutil.WithBandwidth(300, 0), testutil.WithLatency(10, 0), testutil.WithStatus(models.DeviceStatusOnline)),
		testutil.NewDevice(3, testutil.WithName("gamma"), testutil.WithBandwidth(200, 0), testutil.WithLatency(20, 0), testutil.WithStatus(models.DeviceStatusOffline)),
	}
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByName, []string{"device-2", "device-1", "device-3"}},
		{SortByBandwidth, []string{"device-2", "device-3", "device-1"}},
		{SortByLatency, []string{"device-2", "device-3", "device-1"}},
		{SortByStatus, []string{"device-3", "device-2", "device-1"}},
	}
	for _, tt := range tests {
		got := SortDevices(devices, tt.key)
		for i := range got {
			if got[i].ID != tt.want[i] {
				t.Errorf("SortDevices(%s)[%d] = %s, want %s", tt.key, i, got[i].ID, tt.want[i])
			}
		}
	}
	if devices[0].ID != "device-1" {
		t.Error("SortDevices must not reorder its input")
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey(""); err != nil || k != SortByBandwidth {
		t.Errorf("ParseSortKey(\"\") = %q, %v", k, err)
	}
	if _, err := ParseSortKey("uptime"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestTrafficWindow(t *testing.T) {
	samples := make([]models.TrafficSample, 24)
	for i := range samples {
		samples[i].Incoming = int64(i)
	}
	tests := []struct {
		r     TrafficRange
		n     int
		first int64
	}{
		{Range1h, 12, 12},
		{Range6h, 18, 6},
		{Range24h, 24, 0},
	}
	for _, tt := range tests {
		got := TrafficWindow(samples, tt.r)
		if len(got) != tt.n || got[0].Incoming != tt.first {
			t.Errorf("TrafficWindow(%s) len=%d first=%d, want len=%d first=%d", tt.r, len(got), got[0].Incoming, tt.n, tt.first)
		}
	}
	if got := TrafficWindow(samples[:5], Range6h); len(got) != 5 {
		t.Errorf("short series should be returned whole, got %d", len(got))
	}
	if r, _ := ParseTrafficRange(""); r != Range6h {
		t.Errorf("default range = %s, want 6h", r)
	}
	if _, err := ParseTrafficRange("7d"); err == nil {
		t.Error("expected error for 7d")
	}
}

func TestIncidentsByStatus(t *testing.T) {
	incidents := []models.Incident{
		testutil.NewIncident(1),
		testutil.NewIncident(2, testutil.Resolved()),
		testutil.NewIncident(3),
	}
	if got := IncidentsByStatus(incidents, IncidentsActive); len(got) != 2 {
		t.Errorf("active = %d, want 2", len(got))
	}
	if got := IncidentsByStatus(incidents, IncidentsResolved); len(got) != 1 || got[0].ID != "incident-2" {
		t.Errorf("resolved = %+v", got)
	}
	if got := IncidentsByStatus(incidents, IncidentsAll); len(got) != 3 {
		t.Errorf("all = %d, want 3", len(got))
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		ns   models.NetworkStatus
		want Summary
	}{
		{
			name: "healthy",
			ns:   models.NetworkStatus{DevicesOnline: 10, DevicesTotal: 10, OverallStatus: models.OverallHealthy},
			want: Summary{DevicesOnline: 10, DevicesTotal: 10, DevicePercent: 100, DeviceColor: models.ColorOK, AlertColor: models.ColorOK, AlertProgress: 100, OverallStatus: models.OverallHealthy, StatusProgress: 100},
		},
		{
			name: "degraded",
			ns:   models.NetworkStatus{DevicesOnline: 6, DevicesTotal: 10, ActiveAlerts: 2, OverallStatus: models.OverallDegraded},
			want: Summary{DevicesOnline: 6, DevicesTotal: 10, DevicePercent: 60, DeviceColor: models.ColorWarning, ActiveAlerts: 2, AlertColor: models.ColorWarning, AlertProgress: 60, OverallStatus: models.OverallDegraded, StatusProgress: 50},
		},
		{
			name: "critical",
			ns:   models.NetworkStatus{DevicesOnline: 1, DevicesTotal: 3, ActiveAlerts: 6, OverallStatus: models.OverallCritical},
			want: Summary{DevicesOnline: 1, DevicesTotal: 3, DevicePercent: 33, DeviceColor: models.ColorCritical, ActiveAlerts: 6, AlertColor: models.ColorCritical, AlertProgress: 0, OverallStatus: models.OverallCritical, StatusProgress: 20},
		},
		{
			name: "empty",
			ns:   models.NetworkStatus{OverallStatus: models.OverallHealthy},
			want: Summary{DeviceColor: models.ColorCritical, AlertColor: models.ColorOK, AlertProgress: 100, OverallStatus: models.OverallHealthy, StatusProgress: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.ns); got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatCards(t *testing.T) {
	cards := StatCards(models.StatusStats{
		Bandwidth: models.Stat{Value: 1536, Trend: 12.5},
		Latency:   models.Stat{Value: 23.4, Trend: -4},
		Devices:   models.Stat{Value: 8},
		Uptime:    models.Stat{Value: 99.5, Trend: -0.5},
	})
	want := []Card{
		{Title: "Bandwidth", Value: "1.5 KB/s", Trend: 12.5, Up: true},
		{Title: "Latency", Value: "23.4 ms", Trend: 4},
		{Title: "Devices", Value: "8", Up: true},
		{Title: "Uptime", Value: "99.5%", Trend: 0.5},
	}
	for i := range want {
		if cards[i] != want[i] {
			t.Errorf("card %d = %+v, want %+v", i, cards[i], want[i])
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := testutil.Epoch
	if got := RelativeTime(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Errorf("RelativeTime = %q", got)
	}
}
