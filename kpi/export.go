/*
export.go - Tabular renderings of the output views

PURPOSE:
  Converts the three output views back into plain tables for CSV export.
  Column names and row order are fixed, so identical runs produce identical
  bytes. Undefined utilization serializes as an empty cell, never as 0.
*/
package kpi

import (
	"strconv"

	"github.com/warp/productivity-engine/tabular"
)

// DailyTable renders the daily per-agent summary.
func (r *Result) DailyTable() tabular.Table {
	t := tabular.Table{Columns: []string{
		"agent", "date", "team",
		"productive_seconds", "scheduled_seconds", "idle_seconds", "utilization_pct",
	}}
	for _, row := range r.Daily {
		pct := ""
		if row.UtilizationPct != nil {
			pct = row.UtilizationPct.StringFixed(2)
		}
		t.Rows = append(t.Rows, []string{
			row.Agent, row.Date.String(), row.Team,
			formatSeconds(row.ProductiveSeconds),
			formatSeconds(row.ScheduledSeconds),
			formatSeconds(row.IdleSeconds),
			pct,
		})
	}
	return t
}

// CategoryTable renders average handle time per (category, source).
func (r *Result) CategoryTable() tabular.Table {
	t := tabular.Table{Columns: []string{"category_mapped", "source", "events", "avg_handle_seconds"}}
	for _, row := range r.CategoryHandleTime {
		t.Rows = append(t.Rows, []string{
			row.Category, string(row.Source),
			strconv.Itoa(row.Events),
			row.AvgHandleSeconds.StringFixed(2),
		})
	}
	return t
}

// HeatmapTable renders the date/hour/team busyness view.
func (r *Result) HeatmapTable() tabular.Table {
	t := tabular.Table{Columns: []string{"date", "hour", "team", "productive_seconds"}}
	for _, row := range r.Heatmap {
		t.Rows = append(t.Rows, []string{
			row.Date.String(),
			strconv.Itoa(row.Hour),
			row.Team,
			formatSeconds(row.ProductiveSeconds),
		})
	}
	return t
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
