package telemetry

import (
	"math"

	"github.com/HerbHall/netscope/pkg/models"
)

// Summarize derives the network health rollup. The network is healthy when
// every device is online and no incident is active; degraded when at least
// 80% of devices are online or at most two incidents are active; otherwise
// critical.
func Summarize(devices []models.Device, incidents []models.Incident) models.NetworkStatus {
	ns := models.NetworkStatus{DevicesTotal: len(devices)}
	for i := range devices {
		if devices[i].Status == models.DeviceStatusOnline {
			ns.DevicesOnline++
		}
	}
	for i := range incidents {
		if incidents[i].Status == models.IncidentStatusActive {
			ns.ActiveAlerts++
		}
	}

	switch {
	case ns.DevicesOnline == ns.DevicesTotal && ns.ActiveAlerts == 0:
		ns.OverallStatus = models.OverallHealthy
	case float64(ns.DevicesOnline) >= 0.8*float64(ns.DevicesTotal) || ns.ActiveAlerts <= 2:
		ns.OverallStatus = models.OverallDegraded
	default:
		ns.OverallStatus = models.OverallCritical
	}
	return ns
}

// ComputeStats derives the summary cards. prev is the previous snapshot's
// stats, or nil on the first refresh, in which case every trend is zero.
func ComputeStats(prev *models.StatusStats, latency []models.LatencySample, devices []models.Device) models.StatusStats {
	var bandwidth float64
	var reachable int
	for i := range devices {
		bandwidth += float64(devices[i].Bandwidth.Total())
		if devices[i].Status != models.DeviceStatusOffline {
			reachable++
		}
	}

	var avgLatency float64
	if len(latency) > 0 {
		var sum float64
		for i := range latency {
			sum += latency[i].LatencyMs
		}
		avgLatency = round1(sum / float64(len(latency)))
	}

	var uptime float64
	if len(devices) > 0 {
		uptime = round1(100 * float64(reachable) / float64(len(devices)))
	}

	stats := models.StatusStats{
		Bandwidth: models.Stat{Value: bandwidth},
		Latency:   models.Stat{Value: avgLatency},
		Devices:   models.Stat{Value: float64(reachable)},
		Uptime:    models.Stat{Value: uptime},
	}
	if prev != nil {
		stats.Bandwidth.Trend = trend(prev.Bandwidth.Value, stats.Bandwidth.Value)
		stats.Latency.Trend = trend(prev.Latency.Value, stats.Latency.Value)
		stats.Devices.Trend = trend(prev.Devices.Value, stats.Devices.Value)
		stats.Uptime.Trend = trend(prev.Uptime.Value, stats.Uptime.Value)
	}
	return stats
}

// trend is the percent change from prev to cur, rounded to one decimal.
// A zero prev has no meaningful base and yields zero.
func trend(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return round1((cur - prev) / prev * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
