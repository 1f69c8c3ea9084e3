package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// SampleListResponse is the body of GET /history/samples.
type SampleListResponse struct {
	Since   time.Time `json:"since"`
	Samples []Sample  `json:"samples"`
}

// EventListResponse is the body of GET /history/events.
type EventListResponse struct {
	Events []Event `json:"events"`
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/samples", Handler: m.handleSamples},
		{Method: "GET", Path: "/events", Handler: m.handleEvents},
	}
}

// handleSamples lists recorded samples.
//
//	@Summary		List history samples
//	@Description	Aggregate samples recorded on each refresh, oldest first.
//	@Tags			history
//	@Produce		json
//	@Param			since	query		string	false	"RFC 3339 lower bound (default 24h ago)"
//	@Param			limit	query		int		false	"Maximum rows (1-1000, default 100)"
//	@Success		200		{object}	SampleListResponse
//	@Failure		400		{object}	models.APIProblem
//	@Failure		500		{object}	models.APIProblem
//	@Router			/history/samples [get]
func (m *Module) handleSamples(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	since := m.clock.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}

	samples, err := m.store.ListSamples(r.Context(), since, limit)
	if err != nil {
		m.logger.Error("failed to list history samples", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list samples")
		return
	}
	writeJSON(w, http.StatusOK, SampleListResponse{Since: since, Samples: samples})
}

// handleEvents lists recent events.
//
//	@Summary		List history events
//	@Description	Status changes and refresh failures, newest first.
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum rows (1-1000, default 100)"
//	@Success		200		{object}	EventListResponse
//	@Failure		400		{object}	models.APIProblem
//	@Failure		500		{object}	models.APIProblem
//	@Router			/history/events [get]
func (m *Module) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	events, err := m.store.ListEvents(r.Context(), limit)
	if err != nil {
		m.logger.Error("failed to list history events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, EventListResponse{Events: events})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

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
