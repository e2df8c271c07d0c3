/*
errors.go - Error taxonomy for the KPI engine

PURPOSE:
  Two failure classes, per the engine's contract:
  1. Structural errors - required columns missing, invalid configuration.
     Fatal for the run, returned to the caller.
  2. Row-level errors - unparseable timestamps, DST-invalid wall times.
     Absorbed where detected; only their counts surface, via RunReport.

USAGE:
  Callers branch on the class, not on individual errors:

    if kpi.IsStructural(err) {
        // 400-style: the input tables or config are unusable
    }

SEE ALSO:
  - normalize.go, schedule.go: the stages that raise these
  - api/handlers.go: maps the taxonomy onto HTTP status codes
*/
package kpi

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingColumn is returned when a required column is absent from an
	// input table entirely. Individual bad cells are never fatal; a missing
	// column is.
	ErrMissingColumn = errors.New("required column missing")

	// ErrDuplicateWindow is returned when an uploaded schedule carries more
	// than one window for the same (agent, date).
	ErrDuplicateWindow = errors.New("duplicate shift window")

	// ErrInvalidShift is returned when a shift ends at or before it starts.
	ErrInvalidShift = errors.New("shift end not after shift start")

	// ErrUnknownPolicy is returned for an overlap policy that is neither
	// count_full nor split_time.
	ErrUnknownPolicy = errors.New("unknown overlap policy")

	// ErrUnknownTimezone is returned when the configured zone name cannot
	// be resolved against the IANA database.
	ErrUnknownTimezone = errors.New("unknown timezone")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingColumnError names the column and the table it was expected in.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %q: required column %q not found", e.Table, e.Column)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// DuplicateWindowError identifies the conflicting (agent, date) pair.
type DuplicateWindowError struct {
	Agent string
	Date  Date
}

func (e *DuplicateWindowError) Error() string {
	return fmt.Sprintf("duplicate shift window for agent %q on %s", e.Agent, e.Date)
}

func (e *DuplicateWindowError) Unwrap() error { return ErrDuplicateWindow }

// InvalidShiftError identifies a window whose end is not after its start.
type InvalidShiftError struct {
	Agent string
	Date  Date
	Start ClockTime
	End   ClockTime
}

func (e *InvalidShiftError) Error() string {
	return fmt.Sprintf("invalid shift for agent %q on %s: %s-%s", e.Agent, e.Date, e.Start, e.End)
}

func (e *InvalidShiftError) Unwrap() error { return ErrInvalidShift }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsStructural returns true for errors that invalidate the whole run, as
// opposed to row-level conditions that were absorbed and counted.
func IsStructural(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrDuplicateWindow) ||
		errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrUnknownPolicy) ||
		errors.Is(err, ErrUnknownTimezone)
}
