package models

import (
	"errors"
	"time"
)

// Snapshot is the complete set of dashboard data produced by one refresh.
// A Snapshot is never modified after it is published; a refresh replaces it.
type Snapshot struct {
	Sequence      uint64          `json:"sequence" example:"42"`
	Traffic       []TrafficSample `json:"traffic"`
	Latency       []LatencySample `json:"latency"`
	Protocols     []ProtocolShare `json:"protocols"`
	Devices       []Device        `json:"devices"`
	Incidents     []Incident      `json:"incidents"`
	NetworkStatus NetworkStatus   `json:"network_status"`
	StatusStats   StatusStats     `json:"status_stats"`
	LastUpdated   time.Time       `json:"last_updated" example:"2026-01-15T10:30:00Z"`
}

// SnapshotCounts summarizes the collection sizes of a snapshot.
type SnapshotCounts struct {
	Traffic   int `json:"traffic"`
	Latency   int `json:"latency"`
	Protocols int `json:"protocols"`
	Devices   int `json:"devices"`
	Incidents int `json:"incidents"`
}

// Counts returns the collection sizes.
func (s *Snapshot) Counts() SnapshotCounts {
	return SnapshotCounts{
		Traffic:   len(s.Traffic),
		Latency:   len(s.Latency),
		Protocols: len(s.Protocols),
		Devices:   len(s.Devices),
		Incidents: len(s.Incidents),
	}
}

// Validate checks that every collection is present and every enum holds a
// known value.
func (s *Snapshot) Validate() error {
	var errs []error
	if s.Traffic == nil {
		errs = append(errs, errors.New("traffic samples missing"))
	}
	if s.Latency == nil {
		errs = append(errs, errors.New("latency samples missing"))
	}
	if s.Protocols == nil {
		errs = append(errs, errors.New("protocol shares missing"))
	}
	if s.Devices == nil {
		errs = append(errs, errors.New("devices missing"))
	}
	if s.Incidents == nil {
		errs = append(errs, errors.New("incidents missing"))
	}
	for i := range s.Devices {
		if !s.Devices[i].Status.Valid() {
			errs = append(errs, errors.New("device "+s.Devices[i].ID+" has unknown status"))
		}
	}
	for i := range s.Incidents {
		inc := &s.Incidents[i]
		if !inc.Severity.Valid() || !inc.Status.Valid() {
			errs = append(errs, errors.New("incident "+inc.ID+" has unknown severity or status"))
		}
		if (inc.Status == IncidentStatusResolved) != (inc.ResolvedAt != nil) {
			errs = append(errs, errors.New("incident "+inc.ID+" resolved_at does not match status"))
		}
	}
	if !s.NetworkStatus.OverallStatus.Valid() {
		errs = append(errs, errors.New("network status has unknown overall status"))
	}
	if s.LastUpdated.IsZero() {
		errs = append(errs, errors.New("last_updated not set"))
	}
	return errors.Join(errs...)
}

// Device returns the device with the given id.
func (s *Snapshot) Device(id string) (Device, bool) {
	for i := range s.Devices {
		if s.Devices[i].ID == id {
			return s.Devices[i], true
		}
	}
	return Device{}, false
}
