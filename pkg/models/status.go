package models

import "fmt"

// StatusColor is the dashboard color token used to render a status value.
type StatusColor string

const (
	ColorOK       StatusColor = "ok"
	ColorWarning  StatusColor = "warning"
	ColorCritical StatusColor = "critical"
	ColorMuted    StatusColor = "muted"
)

// DeviceStatus represents the current reachability of a monitored device.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusWarning DeviceStatus = "warning"
	DeviceStatusOffline DeviceStatus = "offline"
)

// DeviceStatuses lists every DeviceStatus in display order.
var DeviceStatuses = []DeviceStatus{DeviceStatusOnline, DeviceStatusWarning, DeviceStatusOffline}

// Valid reports whether s is a known device status.
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusOnline, DeviceStatusWarning, DeviceStatusOffline:
		return true
	}
	return false
}

// Label returns the human-readable status name.
func (s DeviceStatus) Label() string {
	switch s {
	case DeviceStatusOnline:
		return "Online"
	case DeviceStatusWarning:
		return "Warning"
	case DeviceStatusOffline:
		return "Offline"
	}
	return "Unknown"
}

// Color returns the badge color for the status.
func (s DeviceStatus) Color() StatusColor {
	switch s {
	case DeviceStatusOnline:
		return ColorOK
	case DeviceStatusWarning:
		return ColorWarning
	case DeviceStatusOffline:
		return ColorCritical
	}
	return ColorMuted
}

// UnmarshalText rejects unknown statuses.
func (s *DeviceStatus) UnmarshalText(b []byte) error {
	v := DeviceStatus(b)
	if !v.Valid() {
		return fmt.Errorf("unknown device status %q", string(b))
	}
	*s = v
	return nil
}

// Severity classifies how urgent an incident is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every Severity from least to most urgent.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities: low=1 .. critical=4. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Label returns the human-readable severity name.
func (s Severity) Label() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	}
	return "Unknown"
}

// Color returns the badge color for the severity.
func (s Severity) Color() StatusColor {
	switch s {
	case SeverityLow:
		return ColorMuted
	case SeverityMedium:
		return ColorWarning
	case SeverityHigh, SeverityCritical:
		return ColorCritical
	}
	return ColorMuted
}

// UnmarshalText rejects unknown severities.
func (s *Severity) UnmarshalText(b []byte) error {
	v := Severity(b)
	if !v.Valid() {
		return fmt.Errorf("unknown severity %q", string(b))
	}
	*s = v
	return nil
}

// IncidentStatus tracks whether an incident is still open.
type IncidentStatus string

const (
	IncidentStatusActive   IncidentStatus = "active"
	IncidentStatusResolved IncidentStatus = "resolved"
)

// Valid reports whether s is a known incident status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentStatusActive, IncidentStatusResolved:
		return true
	}
	return false
}

// Label returns the human-readable incident status.
func (s IncidentStatus) Label() string {
	switch s {
	case IncidentStatusActive:
		return "Active"
	case IncidentStatusResolved:
		return "Resolved"
	}
	return "Unknown"
}

// Color returns the badge color for the incident status.
func (s IncidentStatus) Color() StatusColor {
	switch s {
	case IncidentStatusActive:
		return ColorCritical
	case IncidentStatusResolved:
		return ColorOK
	}
	return ColorMuted
}

// UnmarshalText rejects unknown incident statuses.
func (s *IncidentStatus) UnmarshalText(b []byte) error {
	v := IncidentStatus(b)
	if !v.Valid() {
		return fmt.Errorf("unknown incident status %q", string(b))
	}
	*s = v
	return nil
}

// OverallStatus is the network-wide health rollup.
type OverallStatus string

const (
	OverallHealthy  OverallStatus = "healthy"
	OverallDegraded OverallStatus = "degraded"
	OverallCritical OverallStatus = "critical"
)

// Valid reports whether s is a known overall status.
func (s OverallStatus) Valid() bool {
	switch s {
	case OverallHealthy, OverallDegraded, OverallCritical:
		return true
	}
	return false
}

// Label returns the capitalized status name.
func (s OverallStatus) Label() string {
	switch s {
	case OverallHealthy:
		return "Healthy"
	case OverallDegraded:
		return "Degraded"
	case OverallCritical:
		return "Critical"
	}
	return "Unknown"
}

// Color returns the text color for the status.
func (s OverallStatus) Color() StatusColor {
	switch s {
	case OverallHealthy:
		return ColorOK
	case OverallDegraded:
		return ColorWarning
	case OverallCritical:
		return ColorCritical
	}
	return ColorMuted
}

// Progress returns the fill level of the status bar (0-100).
func (s OverallStatus) Progress() int {
	switch s {
	case OverallHealthy:
		return 100
	case OverallDegraded:
		return 50
	case OverallCritical:
		return 20
	}
	return 0
}

// UnmarshalText rejects unknown overall statuses.
func (s *OverallStatus) UnmarshalText(b []byte) error {
	v := OverallStatus(b)
	if !v.Valid() {
		return fmt.Errorf("unknown overall status %q", string(b))
	}
	*s = v
	return nil
}

// NotificationSeverity selects how a toast is rendered.
type NotificationSeverity string

const (
	NotificationDefault     NotificationSeverity = "default"
	NotificationDestructive NotificationSeverity = "destructive"
)

// Valid reports whether s is a known notification severity.
func (s NotificationSeverity) Valid() bool {
	switch s {
	case NotificationDefault, NotificationDestructive:
		return true
	}
	return false
}

// UnmarshalText rejects unknown notification severities.
func (s *NotificationSeverity) UnmarshalText(b []byte) error {
	v := NotificationSeverity(b)
	if !v.Valid() {
		return fmt.Errorf("unknown notification severity %q", string(b))
	}
	*s = v
	return nil
}

// ParseDeviceStatus converts s to a DeviceStatus.
func ParseDeviceStatus(s string) (DeviceStatus, error) {
	var v DeviceStatus
	err := v.UnmarshalText([]byte(s))
	return v, err
}

// ParseSeverity converts s to a Severity.
func ParseSeverity(s string) (Severity, error) {
	var v Severity
	err := v.UnmarshalText([]byte(s))
	return v, err
}

// ParseIncidentStatus converts s to an IncidentStatus.
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	var v IncidentStatus
	err := v.UnmarshalText([]byte(s))
	return v, err
}
