// Package settings stores the user preferences behind the Settings page and
// applies them to the running provider and notification dispatcher.
package settings

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// ProblemDetail represents an RFC 7807 error response for settings endpoints.
// @Description RFC 7807 Problem Details error response.
type ProblemDetail struct {
	Type   string `json:"type" example:"https://netscope.dev/problems/Bad%20Request"`
	Title  string `json:"title" example:"Bad Request"`
	Status int    `json:"status" example:"400"`
	Detail string `json:"detail" example:"invalid request body"`
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	repo    Repository
	applier Applier
	logger  *zap.Logger
	mu      sync.Mutex // serializes read-modify-write in PUT
}

// NewHandler creates a settings Handler.
func NewHandler(repo Repository, applier Applier, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, applier: applier, logger: logger}
}

// RegisterRoutes registers settings routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings", h.handleGet)
	mux.HandleFunc("PUT /api/v1/settings", h.handlePut)
}

// handleGet returns the current preferences.
//
//	@Summary		Get settings
//	@Description	Notification channel, theme, and auto-refresh preferences.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	Preferences
//	@Failure		500	{object}	ProblemDetail
//	@Router			/settings [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := Load(r.Context(), h.repo)
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// handlePut updates any subset of preferences and applies them.
//
//	@Summary		Update settings
//	@Description	Persist preference changes and apply them immediately.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		Patch	true	"Fields to change"
//	@Success		200		{object}	Preferences
//	@Failure		400		{object}	ProblemDetail
//	@Failure		500		{object}	ProblemDetail
//	@Router			/settings [put]
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "no settings to update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	current, err := Load(r.Context(), h.repo)
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	next := patch.Apply(current)
	if err := Save(r.Context(), h.repo, next); err != nil {
		h.logger.Error("failed to save settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	h.applier.Apply(next)

	h.logger.Info("settings updated",
		zap.Bool("auto_refresh", next.AutoRefresh),
		zap.Bool("push", next.Push),
		zap.Bool("email", next.Email),
		zap.Bool("sms", next.SMS),
	)
	writeJSON(w, http.StatusOK, next)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Type:   "https://netscope.dev/problems/" + http.StatusText(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
