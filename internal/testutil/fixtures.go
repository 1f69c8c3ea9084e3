package testutil

import (
	"fmt"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
)

// NewDevice returns an online Device with plausible defaults. Options
// override individual fields.
func NewDevice(n int, opts ...func(*models.Device)) models.Device {
	d := models.Device{
		ID:         fmt.Sprintf("device-%d", n),
		Name:       fmt.Sprintf("Device %d", n),
		IPAddress:  fmt.Sprintf("192.168.1.%d", 10+n),
		MACAddress: fmt.Sprintf("00:1A:2B:%02d:%02d:%02d", n, n*2, n*3),
		Status:     models.DeviceStatusOnline,
		LastSeen:   Epoch.Add(-time.Minute),
		Bandwidth:  models.Bandwidth{Incoming: 1_000_000, Outgoing: 250_000},
		LatencyMs:  10,
		PacketLoss: 0.5,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithName sets the device name.
func WithName(name string) func(*models.Device) {
	return func(d *models.Device) { d.Name = name }
}

// WithIP sets the device address.
func WithIP(ip string) func(*models.Device) {
	return func(d *models.Device) { d.IPAddress = ip }
}

// WithStatus sets the device status.
func WithStatus(s models.DeviceStatus) func(*models.Device) {
	return func(d *models.Device) { d.Status = s }
}

// WithBandwidth sets incoming and outgoing throughput.
func WithBandwidth(in, out int64) func(*models.Device) {
	return func(d *models.Device) { d.Bandwidth = models.Bandwidth{Incoming: in, Outgoing: out} }
}

// WithLatency sets latency and packet loss.
func WithLatency(ms, loss float64) func(*models.Device) {
	return func(d *models.Device) {
		d.LatencyMs = ms
		d.PacketLoss = loss
	}
}

// NewIncident returns an active low-severity Incident.
func NewIncident(n int, opts ...func(*models.Incident)) models.Incident {
	i := models.Incident{
		ID:          fmt.Sprintf("incident-%d", n),
		Timestamp:   Epoch.Add(-time.Duration(n) * time.Hour),
		Title:       "Minor packet loss detected",
		Description: "Packet loss of 1-2% detected on network segment",
		Severity:    models.SeverityLow,
		Status:      models.IncidentStatusActive,
		DeviceID:    fmt.Sprintf("device-%d", n),
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// WithSeverity sets the incident severity.
func WithSeverity(s models.Severity) func(*models.Incident) {
	return func(i *models.Incident) { i.Severity = s }
}

// Resolved marks the incident resolved ten minutes after it started.
func Resolved() func(*models.Incident) {
	return func(i *models.Incident) {
		at := i.Timestamp.Add(10 * time.Minute)
		i.Status = models.IncidentStatusResolved
		i.ResolvedAt = &at
	}
}

// NewSnapshot returns a small, valid snapshot: three devices, two incidents,
// four traffic and latency samples, two protocols.
func NewSnapshot(opts ...func(*models.Snapshot)) *models.Snapshot {
	s := &models.Snapshot{
		Sequence: 1,
		Protocols: []models.ProtocolShare{
			{Protocol: "HTTP/HTTPS", Fraction: 0.7, Color: "#f97316"},
			{Protocol: "DNS", Fraction: 0.3, Color: "#10b981"},
		},
		Devices: []models.Device{
			NewDevice(1, WithBandwidth(5_000_000, 1_000_000), WithLatency(8, 0.1)),
			NewDevice(2, WithBandwidth(2_000_000, 500_000), WithStatus(models.DeviceStatusWarning), WithLatency(40, 2)),
			NewDevice(3, WithBandwidth(100_000, 50_000), WithStatus(models.DeviceStatusOffline), WithLatency(0, 5)),
		},
		Incidents: []models.Incident{
			NewIncident(1, WithSeverity(models.SeverityHigh)),
			NewIncident(2, Resolved()),
		},
		NetworkStatus: models.NetworkStatus{
			DevicesOnline: 1,
			DevicesTotal:  3,
			ActiveAlerts:  1,
			OverallStatus: models.OverallDegraded,
		},
		LastUpdated: Epoch,
	}
	for i := 3; i >= 0; i-- {
		ts := Epoch.Add(-time.Duration(i) * 5 * time.Minute)
		s.Traffic = append(s.Traffic, models.TrafficSample{Timestamp: ts, Incoming: int64(10_000_000 * (4 - i)), Outgoing: int64(1_000_000 * (4 - i))})
		s.Latency = append(s.Latency, models.LatencySample{Timestamp: ts, LatencyMs: float64(10 + i), PacketLoss: float64(i) / 2})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
