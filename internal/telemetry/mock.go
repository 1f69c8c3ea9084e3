package telemetry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
	"github.com/jonboulle/clockwork"
)

// Counts sets how many items MockSource generates per collection.
type Counts struct {
	Traffic   int `mapstructure:"traffic"`
	Latency   int `mapstructure:"latency"`
	Devices   int `mapstructure:"devices"`
	Incidents int `mapstructure:"incidents"`
}

// DefaultCounts matches the dashboard layout: two hours of 5 minute samples,
// ten devices, five incidents.
var DefaultCounts = Counts{Traffic: 24, Latency: 24, Devices: 10, Incidents: 5}

// DefaultProtocols is the fixed protocol distribution.
var DefaultProtocols = []models.ProtocolShare{
	{Protocol: "HTTP/HTTPS", Fraction: 0.45, Color: "#f97316"},
	{Protocol: "SSH/SFTP", Fraction: 0.20, Color: "#3b82f6"},
	{Protocol: "SMTP", Fraction: 0.15, Color: "#a855f7"},
	{Protocol: "DNS", Fraction: 0.10, Color: "#10b981"},
	{Protocol: "FTP", Fraction: 0.07, Color: "#f43f5e"},
	{Protocol: "Other", Fraction: 0.03, Color: "#64748b"},
}

var incidentTitles = map[models.Severity][]string{
	models.SeverityLow: {
		"Minor bandwidth fluctuation detected",
		"Intermittent latency increase",
		"Non-critical service slowdown",
	},
	models.SeverityMedium: {
		"Elevated packet loss on network segment",
		"Bandwidth threshold exceeded",
		"Multiple connection timeouts detected",
	},
	models.SeverityHigh: {
		"Network congestion affecting critical services",
		"Significant latency increase detected",
		"Router performance degradation",
	},
	models.SeverityCritical: {
		"Network outage detected",
		"Critical service unavailable",
		"Security breach detected",
	},
}

var incidentDescriptions = map[models.Severity][]string{
	models.SeverityLow: {
		"Minor increase in latency observed, monitoring situation",
		"Temporary bandwidth reduction, likely due to scheduled backup",
		"Some users reporting slightly reduced performance",
	},
	models.SeverityMedium: {
		"Packet loss rate increased to 2.5%, investigating cause",
		"Bandwidth utilization at 75% of capacity for over 15 minutes",
		"Database response time increased by 40%",
	},
	models.SeverityHigh: {
		"Multiple critical services experiencing slowdowns",
		"Latency increased to over 200ms on primary links",
		"Redundancy systems activated due to primary system performance",
	},
	models.SeverityCritical: {
		"Complete loss of connectivity detected on primary network segment",
		"Security system detected potential intrusion attempt",
		"Critical infrastructure service down, emergency response initiated",
	},
}

// MockSource generates randomized but plausible telemetry.
type MockSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	clock  clockwork.Clock
	counts Counts
}

// MockOption configures a MockSource.
type MockOption func(*MockSource)

// WithSeed makes generation deterministic.
func WithSeed(seed uint64) MockOption {
	return func(m *MockSource) { m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock sets the time source for generated timestamps.
func WithClock(c clockwork.Clock) MockOption {
	return func(m *MockSource) { m.clock = c }
}

// WithCounts overrides the collection sizes. Zero fields keep their default.
func WithCounts(c Counts) MockOption {
	return func(m *MockSource) {
		if c.Traffic > 0 {
			m.counts.Traffic = c.Traffic
		}
		if c.Latency > 0 {
			m.counts.Latency = c.Latency
		}
		if c.Devices > 0 {
			m.counts.Devices = c.Devices
		}
		if c.Incidents > 0 {
			m.counts.Incidents = c.Incidents
		}
	}
}

// NewMockSource returns a MockSource seeded from the runtime's random source
// unless WithSeed is given.
func NewMockSource(opts ...MockOption) *MockSource {
	m := &MockSource{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:  clockwork.NewRealClock(),
		counts: DefaultCounts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Traffic returns Counts.Traffic samples spaced SampleInterval apart, the
// newest one interval before now.
func (m *MockSource) Traffic(ctx context.Context) ([]models.TrafficSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.counts.Traffic
	now := m.clock.Now()
	out := make([]models.TrafficSample, n)
	for i := range out {
		out[i] = models.TrafficSample{
			Timestamp: now.Add(-time.Duration(n-i) * SampleInterval),
			Incoming:  m.rng.Int64N(100_000_000) + 5_000_000,
			Outgoing:  m.rng.Int64N(50_000_000) + 1_000_000,
		}
	}
	return out, nil
}

// Latency returns Counts.Latency samples on the same grid as Traffic.
func (m *MockSource) Latency(ctx context.Context) ([]models.LatencySample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.counts.Latency
	now := m.clock.Now()
	out := make([]models.LatencySample, n)
	for i := range out {
		out[i] = models.LatencySample{
			Timestamp:  now.Add(-time.Duration(n-i) * SampleInterval),
			LatencyMs:  float64(m.rng.IntN(50) + 5),
			PacketLoss: m.rng.Float64() * 5,
		}
	}
	return out, nil
}

// Protocols returns a copy of DefaultProtocols.
func (m *MockSource) Protocols(ctx context.Context) ([]models.ProtocolShare, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.ProtocolShare, len(DefaultProtocols))
	copy(out, DefaultProtocols)
	return out, nil
}

// Devices returns Counts.Devices devices sorted by total bandwidth,
// highest first. The first generated device is never offline.
func (m *MockSource) Devices(ctx context.Context) ([]models.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	out := make([]models.Device, m.counts.Devices)
	for i := range out {
		choices := len(models.DeviceStatuses)
		if i == 0 {
			choices = 2 // online or warning
		}
		out[i] = models.Device{
			ID:         fmt.Sprintf("device-%d", i+1),
			Name:       fmt.Sprintf("Device %d", i+1),
			IPAddress:  fmt.Sprintf("192.168.1.%d", 10+i),
			MACAddress: fmt.Sprintf("00:1A:2B:%02d:%02d:%02d", i, i*2, i*3),
			Status:     models.DeviceStatuses[m.rng.IntN(choices)],
			LastSeen:   now.Add(-time.Duration(m.rng.Float64() * float64(time.Hour))),
			Bandwidth: models.Bandwidth{
				Incoming: m.rng.Int64N(5_000_000) + 100_000,
				Outgoing: m.rng.Int64N(2_000_000) + 50_000,
			},
			LatencyMs:  float64(m.rng.IntN(50) + 5),
			PacketLoss: m.rng.Float64() * 5,
		}
	}
	SortByBandwidth(out)
	return out, nil
}

// Incidents returns Counts.Incidents incidents from the last 24 hours,
// newest first. About 40% are resolved.
func (m *MockSource) Incidents(ctx context.Context) ([]models.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	deviceRange := m.counts.Devices
	out := make([]models.Incident, m.counts.Incidents)
	for i := range out {
		sev := models.Severities[m.rng.IntN(len(models.Severities))]
		titles, descs := incidentTitles[sev], incidentDescriptions[sev]
		inc := models.Incident{
			ID:          fmt.Sprintf("incident-%d", i+1),
			Timestamp:   now.Add(-time.Duration(m.rng.Float64() * float64(24*time.Hour))),
			Title:       titles[m.rng.IntN(len(titles))],
			Description: descs[m.rng.IntN(len(descs))],
			Severity:    sev,
			Status:      models.IncidentStatusActive,
			DeviceID:    fmt.Sprintf("device-%d", m.rng.IntN(deviceRange)+1),
		}
		if m.rng.Float64() > 0.6 {
			at := inc.Timestamp.Add(time.Duration(m.rng.Float64() * float64(time.Hour)))
			if at.After(now) {
				at = now
			}
			inc.Status = models.IncidentStatusResolved
			inc.ResolvedAt = &at
		}
		out[i] = inc
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.After(out[b].Timestamp) })
	return out, nil
}

// SortByBandwidth orders devices by total bandwidth, highest first.
func SortByBandwidth(devices []models.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Bandwidth.Total() > devices[j].Bandwidth.Total()
	})
}
