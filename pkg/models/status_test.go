package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDeviceStatus_Exhaustive(t *testing.T) {
	for _, s := range DeviceStatuses {
		if !s.Valid() {
			t.Errorf("%q.Valid() = false", s)
		}
		if s.Label() == "Unknown" {
			t.Errorf("%q has no label", s)
		}
		if s.Color() == ColorMuted {
			t.Errorf("%q has no color", s)
		}
	}
	if DeviceStatus("rebooting").Valid() {
		t.Error("unexpected valid status")
	}
}

func TestSeverity_RankOrder(t *testing.T) {
	for i := 1; i < len(Severities); i++ {
		if Severities[i-1].Rank() >= Severities[i].Rank() {
			t.Errorf("Rank(%s) >= Rank(%s)", Severities[i-1], Severities[i])
		}
	}
	if Severity("urgent").Rank() != 0 {
		t.Error("unknown severity should rank 0")
	}
}

func TestOverallStatus_Progress(t *testing.T) {
	tests := []struct {
		status OverallStatus
		want   int
		color  StatusColor
	}{
		{OverallHealthy, 100, ColorOK},
		{OverallDegraded, 50, ColorWarning},
		{OverallCritical, 20, ColorCritical},
	}
	for _, tc := range tests {
		if got := tc.status.Progress(); got != tc.want {
			t.Errorf("%s.Progress() = %d, want %d", tc.status, got, tc.want)
		}
		if got := tc.status.Color(); got != tc.color {
			t.Errorf("%s.Color() = %s, want %s", tc.status, got, tc.color)
		}
	}
}

func TestEnums_RejectUnknownJSON(t *testing.T) {
	var d Device
	if err := json.Unmarshal([]byte(`{"status":"sleeping"}`), &d); err == nil {
		t.Error("expected error for unknown device status")
	}
	var inc Incident
	if err := json.Unmarshal([]byte(`{"severity":"catastrophic","status":"active"}`), &inc); err == nil {
		t.Error("expected error for unknown severity")
	}
	if err := json.Unmarshal([]byte(`{"severity":"low","status":"active"}`), &inc); err != nil {
		t.Errorf("valid incident: %v", err)
	}
}

func TestSnapshot_Validate(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	resolved := now.Add(-time.Minute)
	s := &Snapshot{
		Traffic:   []TrafficSample{},
		Latency:   []LatencySample{},
		Protocols: []ProtocolShare{},
		Devices:   []Device{{ID: "device-1", Status: DeviceStatusOnline}},
		Incidents: []Incident{
			{ID: "incident-1", Severity: SeverityHigh, Status: IncidentStatusResolved, ResolvedAt: &resolved},
		},
		NetworkStatus: NetworkStatus{OverallStatus: OverallHealthy},
		LastUpdated:   now,
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	s.Incidents[0].ResolvedAt = nil
	if err := s.Validate(); err == nil {
		t.Error("expected error for resolved incident without resolved_at")
	}

	empty := &Snapshot{}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty snapshot")
	}
}

func TestSnapshot_DeviceLookup(t *testing.T) {
	s := &Snapshot{Devices: []Device{{ID: "device-1"}, {ID: "device-2", Name: "Device 2"}}}
	d, ok := s.Device("device-2")
	if !ok || d.Name != "Device 2" {
		t.Errorf("Device(device-2) = %+v, %v", d, ok)
	}
	if _, ok := s.Device("device-9"); ok {
		t.Error("Device(device-9) found, want missing")
	}
}

func TestParseFunctions(t *testing.T) {
	if s, err := ParseDeviceStatus("warning"); err != nil || s != DeviceStatusWarning {
		t.Errorf("ParseDeviceStatus(warning) = %q, %v", s, err)
	}
	if _, err := ParseDeviceStatus("Online"); err == nil {
		t.Error("ParseDeviceStatus is case sensitive, want error")
	}
	if s, err := ParseSeverity("critical"); err != nil || s != SeverityCritical {
		t.Errorf("ParseSeverity(critical) = %q, %v", s, err)
	}
	if _, err := ParseIncidentStatus("closed"); err == nil {
		t.Error("ParseIncidentStatus(closed) want error")
	}
}
