package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
)

// Document is the JSON export layout: the snapshot fields plus the export
// time.
type Document struct {
	*models.Snapshot
	ExportedAt time.Time `json:"exported_at"`
}

// EncodeJSON writes the whole snapshot, indented.
func EncodeJSON(snap *models.Snapshot, exportedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Snapshot: snap, ExportedAt: exportedAt.UTC()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeCSV writes one section per collection. Each section starts with a
// "# name" line followed by a header row and is separated from the next by
// an empty line.
func EncodeCSV(snap *models.Snapshot, exportedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	ts := func(t time.Time) string { return t.UTC().Format(time.RFC3339) }
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	i := func(v int64) string { return strconv.FormatInt(v, 10) }

	var rows [][]string
	section := func(name string, header []string) {
		if len(rows) > 0 {
			rows = append(rows, []string{""})
		}
		rows = append(rows, []string{"# " + name}, header)
	}

	section("export", []string{"exported_at", "last_updated", "sequence"})
	rows = append(rows, []string{ts(exportedAt), ts(snap.LastUpdated), strconv.FormatUint(snap.Sequence, 10)})

	ns := snap.NetworkStatus
	section("status", []string{"devices_online", "devices_total", "alerts_active", "overall_status"})
	rows = append(rows, []string{strconv.Itoa(ns.DevicesOnline), strconv.Itoa(ns.DevicesTotal), strconv.Itoa(ns.ActiveAlerts), string(ns.OverallStatus)})

	st := snap.StatusStats
	section("stats", []string{"metric", "value", "trend"})
	rows = append(rows,
		[]string{"bandwidth", f(st.Bandwidth.Value), f(st.Bandwidth.Trend)},
		[]string{"latency", f(st.Latency.Value), f(st.Latency.Trend)},
		[]string{"devices", f(st.Devices.Value), f(st.Devices.Trend)},
		[]string{"uptime", f(st.Uptime.Value), f(st.Uptime.Trend)},
	)

	section("devices", []string{"id", "name", "ip_address", "mac_address", "status", "last_seen", "incoming", "outgoing", "latency_ms", "packet_loss"})
	for _, d := range snap.Devices {
		rows = append(rows, []string{d.ID, d.Name, d.IPAddress, d.MACAddress, string(d.Status), ts(d.LastSeen),
			i(d.Bandwidth.Incoming), i(d.Bandwidth.Outgoing), f(d.LatencyMs), f(d.PacketLoss)})
	}

	section("incidents", []string{"id", "timestamp", "title", "description", "severity", "status", "device_id", "resolved_at"})
	for _, inc := range snap.Incidents {
		resolved := ""
		if inc.ResolvedAt != nil {
			resolved = ts(*inc.ResolvedAt)
		}
		rows = append(rows, []string{inc.ID, ts(inc.Timestamp), inc.Title, inc.Description, string(inc.Severity), string(inc.Status), inc.DeviceID, resolved})
	}

	section("traffic", []string{"timestamp", "incoming", "outgoing"})
	for _, s := range snap.Traffic {
		rows = append(rows, []string{ts(s.Timestamp), i(s.Incoming), i(s.Outgoing)})
	}

	section("latency", []string{"timestamp", "latency_ms", "packet_loss"})
	for _, s := range snap.Latency {
		rows = append(rows, []string{ts(s.Timestamp), f(s.LatencyMs), f(s.PacketLoss)})
	}

	section("protocols", []string{"protocol", "fraction", "color"})
	for _, p := range snap.Protocols {
		rows = append(rows, []string{p.Protocol, f(p.Fraction), p.Color})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
