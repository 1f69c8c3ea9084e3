package models

import "time"

// TrafficSample is one point of the traffic volume series.
type TrafficSample struct {
	Timestamp time.Time `json:"timestamp" example:"2026-01-15T10:30:00Z"`
	Incoming  int64     `json:"incoming" example:"52428800"`
	Outgoing  int64     `json:"outgoing" example:"10485760"`
}

// Total returns incoming plus outgoing bytes.
func (t TrafficSample) Total() int64 {
	return t.Incoming + t.Outgoing
}

// LatencySample is one point of the latency and packet loss series.
type LatencySample struct {
	Timestamp  time.Time `json:"timestamp" example:"2026-01-15T10:30:00Z"`
	LatencyMs  float64   `json:"latency_ms" example:"23"`
	PacketLoss float64   `json:"packet_loss" example:"1.25"` // percent, 0-100
}

// ProtocolShare is one slice of the protocol distribution chart.
type ProtocolShare struct {
	Protocol string  `json:"protocol" example:"HTTP/HTTPS"`
	Fraction float64 `json:"fraction" example:"0.45"`
	Color    string  `json:"color" example:"#f97316"`
}

// Bandwidth holds a device's current throughput in bytes per second.
type Bandwidth struct {
	Incoming int64 `json:"incoming" example:"2097152"`
	Outgoing int64 `json:"outgoing" example:"524288"`
}

// Total returns incoming plus outgoing throughput.
func (b Bandwidth) Total() int64 {
	return b.Incoming + b.Outgoing
}

// Device is a monitored host in the inventory.
type Device struct {
	ID         string       `json:"id" example:"device-1"`
	Name       string       `json:"name" example:"Device 1"`
	IPAddress  string       `json:"ip_address" example:"192.168.1.10"`
	MACAddress string       `json:"mac_address" example:"00:1A:2B:00:00:00"`
	Status     DeviceStatus `json:"status" example:"online"`
	LastSeen   time.Time    `json:"last_seen" example:"2026-01-15T10:30:00Z"`
	Bandwidth  Bandwidth    `json:"bandwidth"`
	LatencyMs  float64      `json:"latency_ms" example:"12"`
	PacketLoss float64      `json:"packet_loss" example:"0.8"`
}

// Incident is a detected network problem. DeviceID is a weak reference and
// may name a device that is not in the current inventory.
type Incident struct {
	ID          string         `json:"id" example:"incident-1"`
	Timestamp   time.Time      `json:"timestamp" example:"2026-01-15T09:12:00Z"`
	Title       string         `json:"title" example:"Bandwidth threshold exceeded"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity" example:"medium"`
	Status      IncidentStatus `json:"status" example:"active"`
	DeviceID    string         `json:"device_id,omitempty" example:"device-3"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

// NetworkStatus is the health rollup shown on the overview card.
type NetworkStatus struct {
	DevicesOnline int           `json:"devices_online" example:"9"`
	DevicesTotal  int           `json:"devices_total" example:"10"`
	ActiveAlerts  int           `json:"alerts_active" example:"2"`
	OverallStatus OverallStatus `json:"overall_status" example:"degraded"`
}

// Stat is one summary card value with its change against the previous refresh.
type Stat struct {
	Value float64 `json:"value" example:"31457280"`
	Trend float64 `json:"trend" example:"4.5"` // percent
}

// StatusStats backs the four summary cards.
type StatusStats struct {
	Bandwidth Stat `json:"bandwidth"`
	Latency   Stat `json:"latency"`
	Devices   Stat `json:"devices"`
	Uptime    Stat `json:"uptime"`
}
