/*
normalize.go - Event Normalizer (pipeline stage 1)

PURPOSE:
  Turns one raw source table into canonical events: parses timestamps,
  localizes naive ones to the run timezone, derives missing durations and
  tags each event with its source and calendar date.

ROW-LEVEL POLICY:
  Rows whose agent is blank or whose timestamps fail to parse are dropped
  and counted, never fatal. Wall times that are ambiguous or nonexistent
  under the zone's DST rules count as unparseable too - a defined outcome,
  not an exception.

STRUCTURAL POLICY:
  A required column missing from the table entirely aborts the run with a
  MissingColumnError naming the column and source.

SEE ALSO:
  - types.go: SourceSchema (the per-source column descriptor)
  - engine.go: feeds both ticket and call tables through this stage
*/
package kpi

import (
	"strconv"
	"strings"
	"time"

	"github.com/warp/productivity-engine/tabular"
)

// =============================================================================
// TIMESTAMP PARSING
// =============================================================================

// Layouts tried in order. Zoned layouts keep their offset (converted into the
// run zone); naive layouts are localized with DST validation.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// parseTimestamp parses a raw cell into an instant in loc. Returns false for
// empty, malformed, or DST-invalid values.
func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, l := range timestampLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, value); err == nil {
				return t.In(loc), true
			}
			continue
		}
		// Parse naive layouts in UTC first to keep the wall clock intact,
		// then localize with explicit DST checks.
		naive, err := time.Parse(l.layout, value)
		if err != nil {
			continue
		}
		return localize(naive, loc)
	}
	return time.Time{}, false
}

// localize places a naive wall-clock reading into loc.
//
// Two wall times have no single valid reading under DST and are rejected:
//   - nonexistent (spring-forward gap): time.Date normalizes them, so the
//     result's wall clock no longer matches the input
//   - ambiguous (fall-back repeat): the instant one hour away shares the
//     same wall clock
func localize(naive time.Time, loc *time.Location) (time.Time, bool) {
	t := time.Date(naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), naive.Nanosecond(), loc)
	if !sameWall(t, naive) {
		return time.Time{}, false
	}
	if sameWall(t.Add(time.Hour), naive) || sameWall(t.Add(-time.Hour), naive) {
		return time.Time{}, false
	}
	return t, true
}

func sameWall(t, naive time.Time) bool {
	y1, mo1, d1 := t.Date()
	y2, mo2, d2 := naive.Date()
	h1, mi1, s1 := t.Clock()
	h2, mi2, s2 := naive.Clock()
	return y1 == y2 && mo1 == mo2 && d1 == d2 && h1 == h2 && mi1 == mi2 && s1 == s2
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeEvents parses one raw source table into canonical events.
// Returns the events, the count of dropped rows, and a structural error if a
// required column is absent.
func NormalizeEvents(tbl tabular.Table, schema SourceSchema, source Source, loc *time.Location) ([]Event, int, error) {
	if tbl.IsEmpty() && len(tbl.Columns) == 0 {
		return nil, 0, nil
	}

	required := []struct {
		name string
		idx  *int
	}{
		{schema.Agent, new(int)},
		{schema.Category, new(int)},
		{schema.Start, new(int)},
		{schema.End, new(int)},
	}
	for _, col := range required {
		i, ok := tbl.ColumnIndex(col.name)
		if !ok {
			return nil, 0, &MissingColumnError{Table: string(source), Column: col.name}
		}
		*col.idx = i
	}
	agentIdx, catIdx, startIdx, endIdx := *required[0].idx, *required[1].idx, *required[2].idx, *required[3].idx

	durIdx := -1
	if schema.Duration != "" {
		if i, ok := tbl.ColumnIndex(schema.Duration); ok {
			durIdx = i
		}
	}
	teamIdx := -1
	if schema.Team != "" {
		if i, ok := tbl.ColumnIndex(schema.Team); ok {
			teamIdx = i
		}
	}

	useSupplied := durIdx >= 0 && durationFullyPopulated(tbl, durIdx)

	var events []Event
	dropped := 0
	for r := range tbl.Rows {
		agent := strings.TrimSpace(tbl.Cell(r, agentIdx))
		if agent == "" {
			dropped++
			continue
		}
		start, ok := parseTimestamp(tbl.Cell(r, startIdx), loc)
		if !ok {
			dropped++
			continue
		}
		end, ok := parseTimestamp(tbl.Cell(r, endIdx), loc)
		if !ok {
			dropped++
			continue
		}

		dur := end.Sub(start)
		if useSupplied {
			secs, _ := strconv.ParseFloat(strings.TrimSpace(tbl.Cell(r, durIdx)), 64)
			dur = time.Duration(secs * float64(time.Second))
		}
		if dur < 0 {
			dur = 0
		}

		team := ""
		if teamIdx >= 0 {
			team = strings.TrimSpace(tbl.Cell(r, teamIdx))
		}

		events = append(events, Event{
			Agent:       agent,
			Team:        team,
			Source:      source,
			CategoryRaw: tbl.Cell(r, catIdx),
			Start:       start,
			End:         end,
			Duration:    dur,
			Date:        DateOf(start),
		})
	}
	return events, dropped, nil
}

// durationFullyPopulated reports whether every row carries a parseable
// duration. A single gap disqualifies the column and durations are derived
// from the timestamps instead, for all rows.
func durationFullyPopulated(tbl tabular.Table, idx int) bool {
	for r := range tbl.Rows {
		v := strings.TrimSpace(tbl.Cell(r, idx))
		if v == "" {
			return false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}
	return true
}
