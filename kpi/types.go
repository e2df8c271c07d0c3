/*
Package kpi computes per-agent productivity KPIs from ticket and call event
logs reconciled against agent work schedules.

PURPOSE:
  One batch run turns three input tables (tickets, calls, optional schedule)
  into three output views: a daily per-agent summary, category-level average
  handle time, and a date/hour busyness heatmap.

PIPELINE (strictly forward, each stage in its own file):
  1. Event Normalizer   normalize.go   raw rows -> canonical events
  2. Category Mapper    categories.go  free-text labels -> canonical taxonomy
  3. Schedule Resolver  schedule.go    uploaded or synthesized shift windows
  4. Window Clipper     clip.go        intersect events with shift windows
  5. Overlap Allocator  allocate.go    share time among overlapping events
  6. Aggregator         aggregate.go   roll up into the three output views

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: one ticket or call interaction, immutable between stages
  - ShiftWindow: one agent's working interval on one calendar date
  - Date/ClockTime: comparable calendar values used as map keys
  - Output rows: DailySummary, CategoryHandleTime, HeatmapCell

DESIGN PRINCIPLES:
  1. Statelessness: every run is an independent value-in/value-out transform
  2. Immutability: stages copy events forward, never mutate shared slices
  3. Precision: derived ratios use decimal.Decimal, not raw float division

SEE ALSO:
  - engine.go: stage orchestration and the run report
  - errors.go: structural vs. row-level failure taxonomy
*/
package kpi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOURCES AND POLICIES
// =============================================================================

// Source identifies which input table an event came from.
type Source string

const (
	SourceTicket Source = "Ticket"
	SourceCall   Source = "Call"
)

// OverlapPolicy governs how simultaneous events on one agent share credit.
type OverlapPolicy string

const (
	// PolicyCountFull credits every event its full clipped duration.
	// Overlaps are intentionally double-counted (multitasking credit).
	PolicyCountFull OverlapPolicy = "count_full"

	// PolicySplitTime shares each overlapping segment equally among the
	// events active in it, so an agent's credited time never exceeds
	// wall-clock time.
	PolicySplitTime OverlapPolicy = "split_time"
)

// =============================================================================
// CALENDAR VALUES
// =============================================================================

// Date is a timezone-naive calendar date, usable as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the calendar date of an instant in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before orders dates chronologically.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// ClockTime is a local time of day without a date, e.g. a shift boundary.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" (or "H:MM") local time-of-day strings.
func ParseClockTime(s string) (ClockTime, error) {
	var c ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return c, nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Minutes returns the offset from midnight, for ordering shift boundaries.
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

// =============================================================================
// EVENTS AND SHIFT WINDOWS
// =============================================================================

// Event is one ticket or call interaction. Created by normalization and
// treated as immutable; the clipper replaces its bounds with the in-shift
// intersection and the allocator fills in Productive.
type Event struct {
	Agent          string
	Team           string
	Source         Source
	CategoryRaw    string
	CategoryMapped string

	// Start/End are zoned instants in the run timezone. After clipping they
	// hold the intersection with the agent's shift window.
	Start time.Time
	End   time.Time

	// Duration is End-Start unless the source supplied its own column.
	// Never negative. After clipping it equals the clipped interval length.
	Duration time.Duration

	// Productive is the credit assigned by the overlap allocator.
	Productive time.Duration

	// Date is the calendar date of Start in the run timezone, the key used
	// to find the matching shift window.
	Date Date
}

// ShiftWindow is one agent's scheduled working interval on one date.
// One window per (agent, date); duplicates are a configuration error.
type ShiftWindow struct {
	Agent string
	Date  Date
	Team  string
	Start time.Time
	End   time.Time
}

// Scheduled returns the window length.
func (w ShiftWindow) Scheduled() time.Duration { return w.End.Sub(w.Start) }

// AgentDate keys the shift window table.
type AgentDate struct {
	Agent string
	Date  Date
}

// =============================================================================
// SCHEMA DESCRIPTORS - column names per input source
// =============================================================================

// SourceSchema names the columns of an event source table. Validated at the
// normalization boundary; Agent, Category, Start and End are required,
// Duration and Team are optional.
type SourceSchema struct {
	Agent    string
	Category string
	Start    string
	End      string
	Duration string // empty = always derive from End-Start
	Team     string // empty = no team attribution
}

// ScheduleSchema names the columns of an uploaded schedule table.
type ScheduleSchema struct {
	Agent      string
	Date       string
	ShiftStart string
	ShiftEnd   string
	Team       string // optional
}

// DefaultTicketSchema matches the documented ticket upload format.
func DefaultTicketSchema() SourceSchema {
	return SourceSchema{Agent: "agent", Category: "category", Start: "start_ts", End: "end_ts"}
}

// DefaultCallSchema matches the documented call upload format; the duration
// column is optional in the upload and recomputed when incomplete.
func DefaultCallSchema() SourceSchema {
	return SourceSchema{Agent: "agent", Category: "category", Start: "start_ts", End: "end_ts", Duration: "duration_seconds"}
}

// DefaultScheduleSchema matches the documented schedule upload format.
func DefaultScheduleSchema() ScheduleSchema {
	return ScheduleSchema{Agent: "agent", Date: "date", ShiftStart: "shift_start", ShiftEnd: "shift_end"}
}

// =============================================================================
// OUTPUT ROWS
// =============================================================================

// DailySummary is one agent's productivity on one date.
type DailySummary struct {
	Agent             string
	Date              Date
	Team              string
	ProductiveSeconds float64
	ScheduledSeconds  float64
	IdleSeconds       float64

	// UtilizationPct is 100*productive/scheduled rounded to 2 places.
	// Nil when scheduled time is zero: utilization is undefined, not 0.
	UtilizationPct *decimal.Decimal
}

// CategoryHandleTime is the mean allocated handle time for one
// (category, source) bucket.
type CategoryHandleTime struct {
	Category         string
	Source           Source
	Events           int
	AvgHandleSeconds decimal.Decimal
}

// HeatmapCell is the productive time in one (date, hour, team) bucket,
// bucketed by the hour of each event's clipped start.
type HeatmapCell struct {
	Date              Date
	Hour              int
	Team              string
	ProductiveSeconds float64
}

// RunReport surfaces row-level losses that were absorbed during the run.
// These are defined outcomes, not errors, but callers should show them.
type RunReport struct {
	DroppedTicketRows   int
	DroppedCallRows     int
	DroppedScheduleRows int

	// UnscheduledEvents counts events whose (agent, date) had no shift
	// window. Their time is clipped to zero; this counter exists so that
	// silent data loss from an incomplete uploaded schedule is visible.
	UnscheduledEvents int
}

// Result bundles the three output views with the run report.
type Result struct {
	Daily              []DailySummary
	CategoryHandleTime []CategoryHandleTime
	Heatmap            []HeatmapCell
	Report             RunReport
}
