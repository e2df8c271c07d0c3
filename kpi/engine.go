/*
engine.go - Run configuration and stage orchestration

PURPOSE:
  Wires the six pipeline stages into one batch transform. An Engine is built
  once per run from an immutable Config and a category mapping; Compute takes
  the three input tables and returns the three output views plus the run
  report. The engine holds no mutable state, so concurrent callers can share
  one instance or build their own.

CONFIGURATION:
  Config is an explicit value passed by parameter, never ambient. Validation
  happens in NewEngine: unknown policies and timezones are structural errors
  up front, not mid-run surprises.

SEE ALSO:
  - config: file/env loading that produces a Config
  - api/handlers.go, cmd/kpirun: the two callers
*/
package kpi

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/productivity-engine/tabular"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is the immutable per-run configuration.
type Config struct {
	// Timezone is the IANA zone naive timestamps are localized to.
	Timezone string

	// Default shift bounds used when no schedule is uploaded.
	DefaultShiftStart ClockTime
	DefaultShiftEnd   ClockTime

	// OverlapPolicy selects count_full or split_time allocation.
	OverlapPolicy OverlapPolicy

	// TeamField is the column carrying team attribution in the event
	// tables; applied to any schema that does not name its own.
	TeamField string

	Tickets  SourceSchema
	Calls    SourceSchema
	Schedule ScheduleSchema
}

// DefaultConfig returns the stock configuration: 09:00-18:00 default shifts,
// split_time allocation, and the documented upload column names.
func DefaultConfig() Config {
	return Config{
		Timezone:          "Asia/Kolkata",
		DefaultShiftStart: ClockTime{Hour: 9},
		DefaultShiftEnd:   ClockTime{Hour: 18},
		OverlapPolicy:     PolicySplitTime,
		TeamField:         "team",
		Tickets:           DefaultTicketSchema(),
		Calls:             DefaultCallSchema(),
		Schedule:          DefaultScheduleSchema(),
	}
}

// normalized fills schema team columns from TeamField where unset.
func (c Config) normalized() Config {
	if c.TeamField == "" {
		c.TeamField = "team"
	}
	if c.Tickets.Team == "" {
		c.Tickets.Team = c.TeamField
	}
	if c.Calls.Team == "" {
		c.Calls.Team = c.TeamField
	}
	if c.Schedule.Team == "" {
		c.Schedule.Team = c.TeamField
	}
	return c
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine is a validated, ready-to-run pipeline. Safe for concurrent use.
type Engine struct {
	cfg     Config
	loc     *time.Location
	mapping CategoryMapping
	log     zerolog.Logger
}

// NewEngine validates the configuration and resolves the timezone.
// A nil mapping degrades to DefaultCategoryMapping.
func NewEngine(cfg Config, mapping CategoryMapping, log zerolog.Logger) (*Engine, error) {
	cfg = cfg.normalized()

	switch cfg.OverlapPolicy {
	case PolicyCountFull, PolicySplitTime:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, cfg.OverlapPolicy)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, cfg.Timezone)
	}

	if cfg.DefaultShiftEnd.Minutes() <= cfg.DefaultShiftStart.Minutes() {
		return nil, &InvalidShiftError{Start: cfg.DefaultShiftStart, End: cfg.DefaultShiftEnd}
	}

	if mapping == nil {
		mapping = DefaultCategoryMapping()
	}

	return &Engine{cfg: cfg, loc: loc, mapping: mapping, log: log}, nil
}

// Location returns the resolved run timezone.
func (e *Engine) Location() *time.Location { return e.loc }

// Compute runs the full pipeline over the three input tables. The schedule
// table may be empty; default windows are synthesized from the events.
// Only structural failures return an error; row-level losses are absorbed
// and counted in the result's report.
func (e *Engine) Compute(tickets, calls, schedule tabular.Table) (*Result, error) {
	report := RunReport{}

	ticketEvents, dropped, err := NormalizeEvents(tickets, e.cfg.Tickets, SourceTicket, e.loc)
	if err != nil {
		return nil, err
	}
	report.DroppedTicketRows = dropped

	callEvents, dropped, err := NormalizeEvents(calls, e.cfg.Calls, SourceCall, e.loc)
	if err != nil {
		return nil, err
	}
	report.DroppedCallRows = dropped

	events := make([]Event, 0, len(ticketEvents)+len(callEvents))
	events = append(events, ticketEvents...)
	events = append(events, callEvents...)

	events = MapCategories(events, e.mapping)

	windows, dropped, err := ResolveSchedule(schedule, e.cfg.Schedule, events,
		e.cfg.DefaultShiftStart, e.cfg.DefaultShiftEnd, e.loc)
	if err != nil {
		return nil, err
	}
	report.DroppedScheduleRows = dropped

	events, unscheduled := ClipToWindows(events, windows)
	report.UnscheduledEvents = unscheduled

	events = AllocateProductive(events, e.cfg.OverlapPolicy)

	daily, categories, heat := Aggregate(events, windows)

	if report.DroppedTicketRows+report.DroppedCallRows+report.DroppedScheduleRows > 0 {
		e.log.Warn().
			Int("dropped_ticket_rows", report.DroppedTicketRows).
			Int("dropped_call_rows", report.DroppedCallRows).
			Int("dropped_schedule_rows", report.DroppedScheduleRows).
			Msg("rows dropped during normalization")
	}
	if report.UnscheduledEvents > 0 {
		e.log.Warn().
			Int("unscheduled_events", report.UnscheduledEvents).
			Msg("events outside any shift window clipped to zero")
	}
	e.log.Debug().
		Int("events", len(events)).
		Int("windows", len(windows)).
		Str("policy", string(e.cfg.OverlapPolicy)).
		Msg("compute finished")

	return &Result{
		Daily:              daily,
		CategoryHandleTime: categories,
		Heatmap:            heat,
		Report:             report,
	}, nil
}
