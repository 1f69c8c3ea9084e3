// Package view holds the derived values the dashboard pages render from a
// snapshot: formatted sizes, device scores, filtered and sorted tables.
package view

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
	"github.com/dustin/go-humanize"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with base-1024 units and at most two decimals,
// trailing zeros dropped: 1536 is "1.5 KB", 0 is "0 B".
func FormatBytes(n float64) string {
	if n <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(n) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	if i < 0 {
		i = 0
	}
	v := n / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + byteUnits[i]
}

// PerformanceScore rates a device from 0 to 100. Each millisecond of latency
// costs two points and each percent of loss twenty, averaged over the two.
func PerformanceScore(d models.Device) int {
	latencyScore := math.Max(0, 100-d.LatencyMs*2)
	lossScore := math.Max(0, 100-d.PacketLoss*20)
	return int(math.Round((latencyScore + lossScore) / 2))
}

// FilterDevices keeps devices whose name contains term case-insensitively or
// whose IP address contains term. An empty term keeps everything.
func FilterDevices(devices []models.Device, term string) []models.Device {
	out := make([]models.Device, 0, len(devices))
	lower := strings.ToLower(term)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), lower) || strings.Contains(d.IPAddress, term) {
			out = append(out, d)
		}
	}
	return out
}

// SortKey selects the device table ordering.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByBandwidth SortKey = "bandwidth"
	SortByLatency   SortKey = "latency"
	SortByStatus    SortKey = "status"
)

// ParseSortKey accepts the four sort keys. Empty means bandwidth.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByName, SortByBandwidth, SortByLatency, SortByStatus:
		return k, nil
	case "":
		return SortByBandwidth, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// SortDevices returns a sorted copy. Names and statuses ascend, bandwidth
// descends, latency ascends. Ties keep their input order.
func SortDevices(devices []models.Device, key SortKey) []models.Device {
	out := make([]models.Device, len(devices))
	copy(out, devices)

	var less func(a, b models.Device) bool
	switch key {
	case SortByName:
		less = func(a, b models.Device) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByBandwidth:
		less = func(a, b models.Device) bool { return a.Bandwidth.Total() > b.Bandwidth.Total() }
	case SortByLatency:
		less = func(a, b models.Device) bool { return a.LatencyMs < b.LatencyMs }
	case SortByStatus:
		less = func(a, b models.Device) bool { return a.Status < b.Status }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// TrafficRange is a traffic chart window.
type TrafficRange string

const (
	Range1h  TrafficRange = "1h"
	Range6h  TrafficRange = "6h"
	Range24h TrafficRange = "24h"
)

// ParseTrafficRange accepts 1h, 6h, and 24h. Empty means 6h.
func ParseTrafficRange(s string) (TrafficRange, error) {
	switch r := TrafficRange(s); r {
	case Range1h, Range6h, Range24h:
		return r, nil
	case "":
		return Range6h, nil
	}
	return "", fmt.Errorf("unknown traffic range %q", s)
}

// TrafficWindow returns the tail of samples shown for r: the last 12 for
// 1h, the last 18 for 6h, all of them for 24h.
func TrafficWindow(samples []models.TrafficSample, r TrafficRange) []models.TrafficSample {
	n := len(samples)
	switch r {
	case Range1h:
		n = 12
	case Range6h:
		n = 18
	}
	if n > len(samples) {
		n = len(samples)
	}
	return samples[len(samples)-n:]
}

// IncidentFilter selects an incidents tab.
type IncidentFilter string

const (
	IncidentsActive   IncidentFilter = "active"
	IncidentsResolved IncidentFilter = "resolved"
	IncidentsAll      IncidentFilter = "all"
)

// ParseIncidentFilter accepts active, resolved, and all. Empty means all.
func ParseIncidentFilter(s string) (IncidentFilter, error) {
	switch f := IncidentFilter(s); f {
	case IncidentsActive, IncidentsResolved, IncidentsAll:
		return f, nil
	case "":
		return IncidentsAll, nil
	}
	return "", fmt.Errorf("unknown incident filter %q", s)
}

// IncidentsByStatus returns the incidents shown on tab f.
func IncidentsByStatus(incidents []models.Incident, f IncidentFilter) []models.Incident {
	out := make([]models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		switch f {
		case IncidentsAll:
			out = append(out, inc)
		case IncidentsActive:
			if inc.Status == models.IncidentStatusActive {
				out = append(out, inc)
			}
		case IncidentsResolved:
			if inc.Status == models.IncidentStatusResolved {
				out = append(out, inc)
			}
		}
	}
	return out
}

// DeviceOnlinePercent is the rounded share of online devices, 0 when the
// inventory is empty.
func DeviceOnlinePercent(ns models.NetworkStatus) int {
	if ns.DevicesTotal == 0 {
		return 0
	}
	return int(math.Round(100 * float64(ns.DevicesOnline) / float64(ns.DevicesTotal)))
}

// DeviceBarColor colors the online-devices bar: ok above 80%, warning above
// 50%, critical otherwise.
func DeviceBarColor(percent int) models.StatusColor {
	switch {
	case percent > 80:
		return models.ColorOK
	case percent > 50:
		return models.ColorWarning
	}
	return models.ColorCritical
}

// AlertLevel colors the active alert count.
func AlertLevel(active int) models.StatusColor {
	switch {
	case active == 0:
		return models.ColorOK
	case active < 3:
		return models.ColorWarning
	}
	return models.ColorCritical
}

// AlertProgress is the alerts bar fill: 100 minus 20 per active alert.
func AlertProgress(active int) int {
	return max(0, 100-20*active)
}

// StatusProgress is the overall status bar fill.
func StatusProgress(s models.OverallStatus) int {
	return s.Progress()
}

// RelativeTime renders t relative to now, e.g. "3 minutes ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
