/*
dto.go - Data Transfer Objects for the compute API

PURPOSE:
  JSON structures for the compute endpoint. These decouple the engine's
  domain types from the wire contract: tables travel as column/row grids, the
  run config travels as optional overrides, and output views are flattened
  rows ready for charting or CSV export.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  DTOs are pure data carriers. Validation happens in the engine at the
  normalization boundary; handlers only map the resulting error taxonomy to
  HTTP statuses.

SEE ALSO:
  - handlers.go: uses these types
  - kpi/types.go: the domain types these mirror
*/
package api

import (
	"github.com/warp/productivity-engine/kpi"
	"github.com/warp/productivity-engine/tabular"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// TableDTO is a column/row grid, the wire form of tabular.Table.
type TableDTO struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t TableDTO) toTable() tabular.Table {
	return tabular.Table{Columns: t.Columns, Rows: t.Rows}
}

// ConfigDTO carries optional per-run overrides of the server's base config.
type ConfigDTO struct {
	Timezone          *string `json:"timezone,omitempty"`
	DefaultShiftStart *string `json:"default_shift_start,omitempty"`
	DefaultShiftEnd   *string `json:"default_shift_end,omitempty"`
	OverlapPolicy     *string `json:"overlap_policy,omitempty"`
	TeamField         *string `json:"team_field,omitempty"`
}

// apply merges the overrides onto a base config. Malformed clock times are
// reported so the handler rejects the request instead of running with
// half-applied settings.
func (c *ConfigDTO) apply(cfg kpi.Config) (kpi.Config, error) {
	if c == nil {
		return cfg, nil
	}
	if c.Timezone != nil {
		cfg.Timezone = *c.Timezone
	}
	if c.OverlapPolicy != nil {
		cfg.OverlapPolicy = kpi.OverlapPolicy(*c.OverlapPolicy)
	}
	if c.TeamField != nil {
		cfg.TeamField = *c.TeamField
	}
	if c.DefaultShiftStart != nil {
		t, err := kpi.ParseClockTime(*c.DefaultShiftStart)
		if err != nil {
			return cfg, err
		}
		cfg.DefaultShiftStart = t
	}
	if c.DefaultShiftEnd != nil {
		t, err := kpi.ParseClockTime(*c.DefaultShiftEnd)
		if err != nil {
			return cfg, err
		}
		cfg.DefaultShiftEnd = t
	}
	return cfg, nil
}

// ComputeRequest is the body of POST /api/compute. Schedule is optional;
// when absent, default windows are synthesized from the events.
type ComputeRequest struct {
	Tickets  TableDTO   `json:"tickets"`
	Calls    TableDTO   `json:"calls"`
	Schedule *TableDTO  `json:"schedule,omitempty"`
	Config   *ConfigDTO `json:"config,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DailySummaryDTO is one agent-day of the daily summary view.
type DailySummaryDTO struct {
	Agent             string   `json:"agent"`
	Date              string   `json:"date"`
	Team              string   `json:"team"`
	ProductiveSeconds float64  `json:"productive_seconds"`
	ScheduledSeconds  float64  `json:"scheduled_seconds"`
	IdleSeconds       float64  `json:"idle_seconds"`
	UtilizationPct    *float64 `json:"utilization_pct"` // null when undefined
}

// CategoryHandleTimeDTO is one (category, source) bucket.
type CategoryHandleTimeDTO struct {
	Category         string  `json:"category_mapped"`
	Source           string  `json:"source"`
	Events           int     `json:"events"`
	AvgHandleSeconds float64 `json:"avg_handle_seconds"`
}

// HeatmapCellDTO is one (date, hour, team) bucket.
type HeatmapCellDTO struct {
	Date              string  `json:"date"`
	Hour              int     `json:"hour"`
	Team              string  `json:"team"`
	ProductiveSeconds float64 `json:"productive_seconds"`
}

// ReportDTO surfaces row-level losses absorbed during the run.
type ReportDTO struct {
	DroppedTicketRows   int `json:"dropped_ticket_rows"`
	DroppedCallRows     int `json:"dropped_call_rows"`
	DroppedScheduleRows int `json:"dropped_schedule_rows"`
	UnscheduledEvents   int `json:"unscheduled_events"`
}

// ComputeResponse is the body returned by POST /api/compute.
type ComputeResponse struct {
	RunID              string                  `json:"run_id"`
	Daily              []DailySummaryDTO       `json:"daily"`
	CategoryHandleTime []CategoryHandleTimeDTO `json:"category_handle_time"`
	Heatmap            []HeatmapCellDTO        `json:"heatmap"`
	Report             ReportDTO               `json:"report"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toComputeResponse(runID string, res *kpi.Result) ComputeResponse {
	resp := ComputeResponse{
		RunID:              runID,
		Daily:              make([]DailySummaryDTO, 0, len(res.Daily)),
		CategoryHandleTime: make([]CategoryHandleTimeDTO, 0, len(res.CategoryHandleTime)),
		Heatmap:            make([]HeatmapCellDTO, 0, len(res.Heatmap)),
		Report: ReportDTO{
			DroppedTicketRows:   res.Report.DroppedTicketRows,
			DroppedCallRows:     res.Report.DroppedCallRows,
			DroppedScheduleRows: res.Report.DroppedScheduleRows,
			UnscheduledEvents:   res.Report.UnscheduledEvents,
		},
	}
	for _, row := range res.Daily {
		dto := DailySummaryDTO{
			Agent:             row.Agent,
			Date:              row.Date.String(),
			Team:              row.Team,
			ProductiveSeconds: row.ProductiveSeconds,
			ScheduledSeconds:  row.ScheduledSeconds,
			IdleSeconds:       row.IdleSeconds,
		}
		if row.UtilizationPct != nil {
			pct := row.UtilizationPct.InexactFloat64()
			dto.UtilizationPct = &pct
		}
		resp.Daily = append(resp.Daily, dto)
	}
	for _, row := range res.CategoryHandleTime {
		resp.CategoryHandleTime = append(resp.CategoryHandleTime, CategoryHandleTimeDTO{
			Category:         row.Category,
			Source:           string(row.Source),
			Events:           row.Events,
			AvgHandleSeconds: row.AvgHandleSeconds.InexactFloat64(),
		})
	}
	for _, row := range res.Heatmap {
		resp.Heatmap = append(resp.Heatmap, HeatmapCellDTO{
			Date:              row.Date.String(),
			Hour:              row.Hour,
			Team:              row.Team,
			ProductiveSeconds: row.ProductiveSeconds,
		})
	}
	return resp
}
