package view

import (
	"fmt"
	"math"

	"github.com/HerbHall/netscope/pkg/models"
)

// AverageLatency is the rounded mean device latency in milliseconds.
func AverageLatency(devices []models.Device) int {
	if len(devices) == 0 {
		return 0
	}
	var sum float64
	for i := range devices {
		sum += devices[i].LatencyMs
	}
	return int(math.Round(sum / float64(len(devices))))
}

// AverageScore is the rounded mean PerformanceScore.
func AverageScore(devices []models.Device) int {
	if len(devices) == 0 {
		return 0
	}
	var sum int
	for i := range devices {
		sum += PerformanceScore(devices[i])
	}
	return int(math.Round(float64(sum) / float64(len(devices))))
}

// Card is one rendered summary card.
type Card struct {
	Title string  `json:"title"`
	Value string  `json:"value"`
	Trend float64 `json:"trend"`
	Up    bool    `json:"up"`
}

// StatCards renders the four summary cards. Trends are shown as absolute
// values with Up carrying the direction.
func StatCards(s models.StatusStats) []Card {
	return []Card{
		card("Bandwidth", FormatBytes(s.Bandwidth.Value)+"/s", s.Bandwidth.Trend),
		card("Latency", fmt.Sprintf("%s ms", trimFloat(s.Latency.Value)), s.Latency.Trend),
		card("Devices", fmt.Sprintf("%d", int(s.Devices.Value)), s.Devices.Trend),
		card("Uptime", fmt.Sprintf("%s%%", trimFloat(s.Uptime.Value)), s.Uptime.Trend),
	}
}

func card(title, value string, trend float64) Card {
	return Card{Title: title, Value: value, Trend: math.Abs(trend), Up: trend >= 0}
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Summary is the network summary panel.
type Summary struct {
	DevicesOnline  int                  `json:"devices_online"`
	DevicesTotal   int                  `json:"devices_total"`
	DevicePercent  int                  `json:"device_percent"`
	DeviceColor    models.StatusColor   `json:"device_color"`
	ActiveAlerts   int                  `json:"alerts_active"`
	AlertColor     models.StatusColor   `json:"alert_color"`
	AlertProgress  int                  `json:"alert_progress"`
	OverallStatus  models.OverallStatus `json:"overall_status"`
	StatusProgress int                  `json:"status_progress"`
}

// Summarize renders the summary panel for ns.
func Summarize(ns models.NetworkStatus) Summary {
	pct := DeviceOnlinePercent(ns)
	return Summary{
		DevicesOnline:  ns.DevicesOnline,
		DevicesTotal:   ns.DevicesTotal,
		DevicePercent:  pct,
		DeviceColor:    DeviceBarColor(pct),
		ActiveAlerts:   ns.ActiveAlerts,
		AlertColor:     AlertLevel(ns.ActiveAlerts),
		AlertProgress:  AlertProgress(ns.ActiveAlerts),
		OverallStatus:  ns.OverallStatus,
		StatusProgress: StatusProgress(ns.OverallStatus),
	}
}
