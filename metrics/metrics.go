// Package metrics provides Prometheus observability for the KPI engine.
// Counters cover the row-level losses the run report surfaces; histograms
// cover compute latency and input size.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

// factory registers metrics against our Registry directly.
var factory = promauto.With(Registry)

// =============================================================================
// RUN METRICS
// =============================================================================

// ComputeRunsTotal counts compute invocations by outcome.
var ComputeRunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kpi",
	Name:      "compute_runs_total",
	Help:      "Total compute runs by outcome (ok, invalid_input, error)",
}, []string{"outcome"})

// ComputeDurationSeconds tracks end-to-end pipeline latency.
var ComputeDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "kpi",
	Name:      "compute_duration_seconds",
	Help:      "Time taken to run the full KPI pipeline",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
})

// EventsProcessed tracks input size per run.
var EventsProcessed = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "kpi",
	Name:      "events_processed",
	Help:      "Number of input event rows per compute run",
	Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
})

// =============================================================================
// DATA QUALITY METRICS
// =============================================================================

// RowsDroppedTotal counts rows excluded during normalization, by table.
var RowsDroppedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kpi",
	Name:      "rows_dropped_total",
	Help:      "Rows dropped for unparseable timestamps or missing agents, by table",
}, []string{"table"})

// UnscheduledEventsTotal counts events clipped to zero because their
// (agent, date) had no shift window.
var UnscheduledEventsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "kpi",
	Name:      "unscheduled_events_total",
	Help:      "Events with no matching shift window, clipped to zero productive time",
})

// ObserveReport records one run's row-level losses.
func ObserveReport(droppedTickets, droppedCalls, droppedSchedule, unscheduled int) {
	RowsDroppedTotal.WithLabelValues("tickets").Add(float64(droppedTickets))
	RowsDroppedTotal.WithLabelValues("calls").Add(float64(droppedCalls))
	RowsDroppedTotal.WithLabelValues("schedule").Add(float64(droppedSchedule))
	UnscheduledEventsTotal.Add(float64(unscheduled))
}
