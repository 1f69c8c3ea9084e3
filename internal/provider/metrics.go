package provider

import (
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	refreshes *prometheus.CounterVec
	duration  prometheus.Histogram
	coalesced prometheus.Counter
	exports   *prometheus.CounterVec
	devices   *prometheus.GaugeVec
	active    prometheus.Gauge
	dropped   prometheus.Counter
}

// newMetrics builds the collectors and registers them with reg when it is
// not nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netscope_refresh_total",
			Help: "Network data refreshes by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "netscope_refresh_duration_seconds",
			Help:    "Time spent collecting a network snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netscope_refresh_coalesced_total",
			Help: "Refresh calls that joined an in-flight refresh.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netscope_export_total",
			Help: "Exports by format and result.",
		}, []string{"format", "result"}),
		devices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netscope_devices",
			Help: "Devices in the current snapshot by status.",
		}, []string{"status"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netscope_incidents_active",
			Help: "Active incidents in the current snapshot.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netscope_effects_dropped_total",
			Help: "Notifications and events dropped because the delivery queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.refreshes, m.duration, m.coalesced, m.exports, m.devices, m.active, m.dropped)
	}
	return m
}

func (m *metrics) observe(s *models.Snapshot) {
	counts := make(map[models.DeviceStatus]int, len(models.DeviceStatuses))
	for i := range s.Devices {
		counts[s.Devices[i].Status]++
	}
	for _, st := range models.DeviceStatuses {
		m.devices.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
	m.active.Set(float64(s.NetworkStatus.ActiveAlerts))
}
