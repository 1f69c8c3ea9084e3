package provider

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/HerbHall/netscope/internal/export"
	"github.com/HerbHall/netscope/internal/view"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/snapshot", Handler: m.handleSnapshot},
		{Method: "GET", Path: "/traffic", Handler: m.handleTraffic},
		{Method: "GET", Path: "/latency", Handler: m.handleLatency},
		{Method: "GET", Path: "/protocols", Handler: m.handleProtocols},
		{Method: "GET", Path: "/devices", Handler: m.handleDevices},
		{Method: "GET", Path: "/devices/{id}", Handler: m.handleDevice},
		{Method: "GET", Path: "/performance", Handler: m.handlePerformance},
		{Method: "GET", Path: "/incidents", Handler: m.handleIncidents},
		{Method: "GET", Path: "/status", Handler: m.handleStatus},
		{Method: "GET", Path: "/stats", Handler: m.handleStats},
		{Method: "POST", Path: "/refresh", Handler: m.handleRefresh},
		{Method: "GET", Path: "/export", Handler: m.handleExport},
	}
}

// SnapshotResponse is the response for GET /network/snapshot.
type SnapshotResponse struct {
	Snapshot    *models.Snapshot `json:"snapshot"`
	Loading     bool             `json:"loading"`
	LastUpdated *time.Time       `json:"last_updated"`
	AutoRefresh bool             `json:"auto_refresh"`
	Interval    string           `json:"refresh_interval" example:"30s"`
}

// TrafficResponse is the response for GET /network/traffic.
type TrafficResponse struct {
	Range   view.TrafficRange      `json:"range" example:"6h"`
	Samples []models.TrafficSample `json:"samples"`
}

// DeviceRow is one row of the device table.
type DeviceRow struct {
	models.Device
	Score   int    `json:"score" example:"85"`
	SeenAgo string `json:"last_seen_relative" example:"3 minutes ago"`
}

// DeviceListResponse is the response for GET /network/devices. Matched
// counts the rows after the search filter; Total counts the inventory.
type DeviceListResponse struct {
	Devices []DeviceRow  `json:"devices"`
	Matched int          `json:"matched" example:"3"`
	Total   int          `json:"total" example:"10"`
	Sort    view.SortKey `json:"sort" example:"bandwidth"`
}

// DeviceDetail is the response for GET /network/devices/{id}.
type DeviceDetail struct {
	DeviceRow
	Incidents []models.Incident `json:"incidents"`
}

// PerformanceResponse is the response for GET /network/performance.
type PerformanceResponse struct {
	AverageLatency int         `json:"average_latency" example:"23"`
	AverageScore   int         `json:"average_score" example:"78"`
	Devices        []DeviceRow `json:"devices"`
}

// IncidentCounts are the tab badges of the incidents page.
type IncidentCounts struct {
	All      int `json:"all" example:"5"`
	Active   int `json:"active" example:"3"`
	Resolved int `json:"resolved" example:"2"`
}

// IncidentListResponse is the response for GET /network/incidents.
type IncidentListResponse struct {
	Status    view.IncidentFilter `json:"status" example:"all"`
	Incidents []models.Incident   `json:"incidents"`
	Counts    IncidentCounts      `json:"counts"`
}

// StatsResponse is the response for GET /network/stats.
type StatsResponse struct {
	Stats models.StatusStats `json:"stats"`
	Cards []view.Card        `json:"cards"`
}

// RefreshResponse is the response for POST /network/refresh.
type RefreshResponse struct {
	Sequence    uint64                `json:"sequence" example:"7"`
	LastUpdated time.Time             `json:"last_updated"`
	Counts      models.SnapshotCounts `json:"counts"`
}

// current resolves the provider and its snapshot for a request, writing the
// error response itself when either is missing.
func (m *Module) current(w http.ResponseWriter, r *http.Request) (*models.Snapshot, bool) {
	p, err := FromContext(r.Context())
	if err != nil {
		m.logger.Error("handler called without provider", zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	snap := p.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoSnapshot.Error())
		return nil, false
	}
	return snap, true
}

func deviceRow(d models.Device, now time.Time) DeviceRow {
	return DeviceRow{Device: d, Score: view.PerformanceScore(d), SeenAgo: view.RelativeTime(d.LastSeen, now)}
}

func deviceRows(devices []models.Device, now time.Time) []DeviceRow {
	rows := make([]DeviceRow, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, deviceRow(d, now))
	}
	return rows
}

// handleSnapshot returns the whole snapshot with refresh state.
//
//	@Summary		Network snapshot
//	@Description	Returns the current snapshot, the loading flag and the last update time. The snapshot is null before the first successful refresh.
//	@Tags			network
//	@Produce		json
//	@Success		200	{object}	SnapshotResponse
//	@Failure		500	{object}	models.APIProblem
//	@Router			/network/snapshot [get]
func (m *Module) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	p, err := FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := SnapshotResponse{
		Snapshot:    p.Snapshot(),
		Loading:     p.Loading(),
		AutoRefresh: p.AutoRefresh(),
		Interval:    p.Interval().String(),
	}
	if resp.Snapshot != nil {
		t := resp.Snapshot.LastUpdated
		resp.LastUpdated = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTraffic returns the traffic series for a time range.
//
//	@Summary		Traffic series
//	@Tags			network
//	@Produce		json
//	@Param			range	query		string	false	"Time range"	Enums(1h, 6h, 24h)	default(6h)
//	@Success		200		{object}	TrafficResponse
//	@Failure		400		{object}	models.APIProblem
//	@Failure		503		{object}	models.APIProblem
//	@Router			/network/traffic [get]
func (m *Module) handleTraffic(w http.ResponseWriter, r *http.Request) {
	rng, err := view.ParseTrafficRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TrafficResponse{Range: rng, Samples: view.TrafficWindow(snap.Traffic, rng)})
}

// handleLatency returns the latency series.
//
//	@Summary		Latency series
//	@Tags			network
//	@Produce		json
//	@Success		200	{array}		models.LatencySample
//	@Failure		503	{object}	models.APIProblem
//	@Router			/network/latency [get]
func (m *Module) handleLatency(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Latency)
}

// handleProtocols returns the protocol mix.
//
//	@Summary		Protocol distribution
//	@Tags			network
//	@Produce		json
//	@Success		200	{array}		models.ProtocolShare
//	@Failure		503	{object}	models.APIProblem
//	@Router			/network/protocols [get]
func (m *Module) handleProtocols(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Protocols)
}

// handleDevices returns the filtered, sorted device table.
//
//	@Summary		Device table
//	@Tags			network
//	@Produce		json
//	@Param			search	query		string	false	"Name or IP substring"
//	@Param			sort	query		string	false	"Sort key"	Enums(name, bandwidth, latency, status)	default(bandwidth)
//	@Success		200		{object}	DeviceListResponse
//	@Failure		400		{object}	models.APIProblem
//	@Failure		503		{object}	models.APIProblem
//	@Router			/network/devices [get]
func (m *Module) handleDevices(w http.ResponseWriter, r *http.Request) {
	key, err := view.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	devices := view.SortDevices(view.FilterDevices(snap.Devices, r.URL.Query().Get("search")), key)
	writeJSON(w, http.StatusOK, DeviceListResponse{
		Devices: deviceRows(devices, snap.LastUpdated),
		Matched: len(devices),
		Total:   len(snap.Devices),
		Sort:    key,
	})
}

// handleDevice returns one device with its incidents.
//
//	@Summary		Device detail
//	@Tags			network
//	@Produce		json
//	@Param			id	path		string	true	"Device ID"
//	@Success		200	{object}	DeviceDetail
//	@Failure		404	{object}	models.APIProblem
//	@Failure		503	{object}	models.APIProblem
//	@Router			/network/devices/{id} [get]
func (m *Module) handleDevice(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	d, found := snap.Device(id)
	if !found {
		writeError(w, http.StatusNotFound, "device "+id+" not found")
		return
	}
	incidents := []models.Incident{}
	for _, inc := range snap.Incidents {
		if inc.DeviceID == id {
			incidents = append(incidents, inc)
		}
	}
	writeJSON(w, http.StatusOK, DeviceDetail{DeviceRow: deviceRow(d, snap.LastUpdated), Incidents: incidents})
}

// handlePerformance returns latency and score averages.
//
//	@Summary		Device performance
//	@Description	Averages over all devices, or over one device when device is set.
//	@Tags			network
//	@Produce		json
//	@Param			device	query		string	false	"Device ID"
//	@Success		200		{object}	PerformanceResponse
//	@Failure		404		{object}	models.APIProblem
//	@Failure		503		{object}	models.APIProblem
//	@Router			/network/performance [get]
func (m *Module) handlePerformance(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	devices := snap.Devices
	if id := r.URL.Query().Get("device"); id != "" {
		d, found := snap.Device(id)
		if !found {
			writeError(w, http.StatusNotFound, "device "+id+" not found")
			return
		}
		devices = []models.Device{d}
	}
	writeJSON(w, http.StatusOK, PerformanceResponse{
		AverageLatency: view.AverageLatency(devices),
		AverageScore:   view.AverageScore(devices),
		Devices:        deviceRows(devices, snap.LastUpdated),
	})
}

// handleIncidents returns the incidents of one tab with tab counts.
//
//	@Summary		Incidents
//	@Tags			network
//	@Produce		json
//	@Param			status	query		string	false	"Tab"	Enums(active, resolved, all)	default(all)
//	@Success		200		{object}	IncidentListResponse
//	@Failure		400		{object}	models.APIProblem
//	@Failure		503		{object}	models.APIProblem
//	@Router			/network/incidents [get]
func (m *Module) handleIncidents(w http.ResponseWriter, r *http.Request) {
	filter, err := view.ParseIncidentFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, IncidentListResponse{
		Status:    filter,
		Incidents: view.IncidentsByStatus(snap.Incidents, filter),
		Counts: IncidentCounts{
			All:      len(snap.Incidents),
			Active:   len(view.IncidentsByStatus(snap.Incidents, view.IncidentsActive)),
			Resolved: len(view.IncidentsByStatus(snap.Incidents, view.IncidentsResolved)),
		},
	})
}

// handleStatus returns the network summary panel.
//
//	@Summary		Network status
//	@Tags			network
//	@Produce		json
//	@Success		200	{object}	view.Summary
//	@Failure		503	{object}	models.APIProblem
//	@Router			/network/status [get]
func (m *Module) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Summarize(snap.NetworkStatus))
}

// handleStats returns the summary cards.
//
//	@Summary		Status cards
//	@Tags			network
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Failure		503	{object}	models.APIProblem
//	@Router			/network/stats [get]
func (m *Module) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Stats: snap.StatusStats, Cards: view.StatCards(snap.StatusStats)})
}

// handleRefresh triggers a refresh and waits for it.
//
//	@Summary		Refresh network data
//	@Description	Refreshes now. Joins a refresh already in flight.
//	@Tags			network
//	@Produce		json
//	@Success		200	{object}	RefreshResponse
//	@Failure		503	{object}	models.APIProblem
//	@Router			/network/refresh [post]
func (m *Module) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap, err := p.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "refresh failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Sequence: snap.Sequence, LastUpdated: snap.LastUpdated, Counts: snap.Counts()})
}

// handleExport downloads the snapshot as a file.
//
//	@Summary		Export network data
//	@Tags			network
//	@Produce		json
//	@Produce		text/csv
//	@Produce		application/pdf
//	@Param			format	query		string	false	"File format"	Enums(json, csv, pdf)	default(json)
//	@Success		200		{file}		file
//	@Failure		400		{object}	models.APIProblem
//	@Failure		503		{object}	models.APIProblem
//	@Router			/network/export [get]
func (m *Module) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(export.FormatJSON)
	}
	dw := &deliveryWriter{ResponseWriter: w}
	if _, err := p.Export(r.Context(), format, export.ResponseDeliverer{W: dw}); err != nil {
		if dw.started {
			return
		}
		switch {
		case errors.Is(err, export.ErrUnknownFormat):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNoSnapshot):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "export failed")
		}
	}
}

// deliveryWriter records whether the download has started, after which no
// error response can be written.
type deliveryWriter struct {
	http.ResponseWriter
	started bool
}

func (w *deliveryWriter) WriteHeader(code int) {
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *deliveryWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an RFC 7807 problem detail response.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://netscope.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
