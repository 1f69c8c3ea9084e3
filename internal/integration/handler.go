package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/HerbHall/netscope/internal/export"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// PlanResponse is the JSON body of GET /integration-plan.
type PlanResponse struct {
	*Plan
	DurationWeeks int `json:"duration_weeks" example:"16"`
}

// Handler serves the integration plan.
type Handler struct {
	plan   *Plan
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewHandler creates a Handler for plan. A nil clock uses the real clock.
func NewHandler(plan *Plan, clock clockwork.Clock, logger *zap.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{plan: plan, clock: clock, logger: logger}
}

// RegisterRoutes registers the integration plan route on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/integration-plan", h.handlePlan)
}

// handlePlan returns the plan as JSON or as a PDF download.
//
//	@Summary		Integration plan
//	@Description	Phases, requirements, deliverables, and success criteria.
//	@Tags			integration
//	@Produce		json
//	@Produce		application/pdf
//	@Param			format	query		string	false	"json (default) or pdf"
//	@Success		200		{object}	PlanResponse
//	@Failure		400		{object}	models.APIProblem
//	@Failure		500		{object}	models.APIProblem
//	@Router			/integration-plan [get]
func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, PlanResponse{Plan: h.plan, DurationWeeks: h.plan.DurationWeeks()})
	case "pdf":
		now := h.clock.Now()
		content, err := RenderPDF(h.plan, now)
		if err != nil {
			h.logger.Error("failed to render integration plan", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to render integration plan")
			return
		}
		f := export.File{
			Name:    "integration-plan-" + now.UTC().Format(time.DateOnly) + ".pdf",
			MIME:    export.FormatPDF.MIME(),
			Content: content,
		}
		if err := (export.ResponseDeliverer{W: w}).Deliver(r.Context(), f); err != nil {
			h.logger.Warn("failed to deliver integration plan", zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be json or pdf")
	}
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
