/*
handlers.go - HTTP handlers for the compute API

PURPOSE:
  Exposes the KPI engine as a single stateless endpoint. Each request carries
  its own tables and config overrides and gets an independent engine run;
  nothing is shared between requests beyond the immutable base config.

ENDPOINTS:
  POST /api/compute   Run the pipeline over the posted tables
  GET  /api/healthz   Liveness probe

ERROR HANDLING:
  - 400 invalid_body:    request is not valid JSON
  - 400 invalid_config:  overrides produce an unusable config
  - 400 invalid_input:   structural table errors (missing columns,
                         duplicate or reversed shift windows)
  - 500 internal:        anything else

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/productivity-engine/kpi"
	"github.com/warp/productivity-engine/metrics"
	"github.com/warp/productivity-engine/tabular"
)

// Handler holds the immutable dependencies of the compute API.
type Handler struct {
	base    kpi.Config
	mapping kpi.CategoryMapping
	log     zerolog.Logger
}

// NewHandler creates a handler around a base config and category mapping.
func NewHandler(base kpi.Config, mapping kpi.CategoryMapping, log zerolog.Logger) *Handler {
	return &Handler{base: base, mapping: mapping, log: log}
}

// Compute handles POST /api/compute.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ComputeRunsTotal.WithLabelValues("invalid_input").Inc()
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	cfg, err := req.Config.apply(h.base)
	if err != nil {
		metrics.ComputeRunsTotal.WithLabelValues("invalid_input").Inc()
		writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}

	engine, err := kpi.NewEngine(cfg, h.mapping, h.log)
	if err != nil {
		metrics.ComputeRunsTotal.WithLabelValues("invalid_input").Inc()
		writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}

	var schedule tabular.Table
	if req.Schedule != nil {
		schedule = req.Schedule.toTable()
	}

	runID := uuid.NewString()
	start := time.Now()
	res, err := engine.Compute(req.Tickets.toTable(), req.Calls.toTable(), schedule)
	if err != nil {
		if kpi.IsStructural(err) {
			metrics.ComputeRunsTotal.WithLabelValues("invalid_input").Inc()
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		metrics.ComputeRunsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("run_id", runID).Msg("compute failed")
		writeError(w, http.StatusInternalServerError, "internal", "compute failed")
		return
	}
	elapsed := time.Since(start)

	metrics.ComputeRunsTotal.WithLabelValues("ok").Inc()
	metrics.ComputeDurationSeconds.Observe(elapsed.Seconds())
	metrics.EventsProcessed.Observe(float64(len(req.Tickets.Rows) + len(req.Calls.Rows)))
	metrics.ObserveReport(res.Report.DroppedTicketRows, res.Report.DroppedCallRows,
		res.Report.DroppedScheduleRows, res.Report.UnscheduledEvents)

	h.log.Info().
		Str("run_id", runID).
		Int("ticket_rows", len(req.Tickets.Rows)).
		Int("call_rows", len(req.Calls.Rows)).
		Int("daily_rows", len(res.Daily)).
		Int("unscheduled_events", res.Report.UnscheduledEvents).
		Dur("elapsed", elapsed).
		Msg("compute run")

	writeJSON(w, http.StatusOK, toComputeResponse(runID, res))
}

// Health handles GET /api/healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
