/*
schedule.go - Schedule Resolver (pipeline stage 3)

PURPOSE:
  Produces the per-agent, per-date shift window table. Two modes:
  - Uploaded schedule: each row's date is combined with its local
    shift-start/shift-end times into zoned instants in the run timezone.
  - No (or empty) schedule: one default window is synthesized per distinct
    (agent, date) pair observed among the events, carrying the agent's
    first-observed team.

INVARIANTS:
  - One window per (agent, date); a duplicate in the upload is a
    configuration error, not a merge.
  - shift_end > shift_start; a reversed shift is a configuration error.

EDGE CASE (intentional):
  An (agent, date) pair present in events but absent from an uploaded
  schedule gets no window. Downstream clipping zeroes those events and the
  run report counts them as unscheduled.

SEE ALSO:
  - clip.go: consumes the window table
*/
package kpi

import (
	"strings"
	"time"

	"github.com/warp/productivity-engine/tabular"
)

// ResolveSchedule builds the shift window table. Returns the windows keyed by
// (agent, date), the count of dropped schedule rows, and a structural error
// for duplicate or reversed windows and missing columns.
func ResolveSchedule(tbl tabular.Table, schema ScheduleSchema, events []Event, defStart, defEnd ClockTime, loc *time.Location) (map[AgentDate]ShiftWindow, int, error) {
	if tbl.IsEmpty() {
		windows, err := synthesizeSchedule(events, defStart, defEnd, loc)
		return windows, 0, err
	}
	return parseSchedule(tbl, schema, loc)
}

// synthesizeSchedule creates one default window per observed (agent, date).
func synthesizeSchedule(events []Event, defStart, defEnd ClockTime, loc *time.Location) (map[AgentDate]ShiftWindow, error) {
	if defEnd.Minutes() <= defStart.Minutes() {
		return nil, &InvalidShiftError{Start: defStart, End: defEnd}
	}

	// First-observed team per agent, matching the upload-free behavior.
	agentTeam := make(map[string]string)
	for _, ev := range events {
		if _, seen := agentTeam[ev.Agent]; !seen {
			agentTeam[ev.Agent] = ev.Team
		}
	}

	windows := make(map[AgentDate]ShiftWindow)
	for _, ev := range events {
		key := AgentDate{Agent: ev.Agent, Date: ev.Date}
		if _, ok := windows[key]; ok {
			continue
		}
		start, okS := atClock(ev.Date, defStart, loc)
		end, okE := atClock(ev.Date, defEnd, loc)
		if !okS || !okE {
			// A default boundary falling into a DST gap leaves the pair
			// unscheduled; its events surface in the unscheduled count.
			continue
		}
		windows[key] = ShiftWindow{
			Agent: ev.Agent,
			Date:  ev.Date,
			Team:  agentTeam[ev.Agent],
			Start: start,
			End:   end,
		}
	}
	return windows, nil
}

// parseSchedule reads an uploaded schedule table.
func parseSchedule(tbl tabular.Table, schema ScheduleSchema, loc *time.Location) (map[AgentDate]ShiftWindow, int, error) {
	required := []string{schema.Agent, schema.Date, schema.ShiftStart, schema.ShiftEnd}
	idx := make([]int, len(required))
	for i, name := range required {
		j, ok := tbl.ColumnIndex(name)
		if !ok {
			return nil, 0, &MissingColumnError{Table: "schedule", Column: name}
		}
		idx[i] = j
	}
	agentIdx, dateIdx, startIdx, endIdx := idx[0], idx[1], idx[2], idx[3]
	teamIdx := -1
	if schema.Team != "" {
		if i, ok := tbl.ColumnIndex(schema.Team); ok {
			teamIdx = i
		}
	}

	windows := make(map[AgentDate]ShiftWindow)
	dropped := 0
	for r := range tbl.Rows {
		agent := strings.TrimSpace(tbl.Cell(r, agentIdx))
		if agent == "" {
			dropped++
			continue
		}
		when, ok := parseTimestamp(tbl.Cell(r, dateIdx), loc)
		if !ok {
			dropped++
			continue
		}
		date := DateOf(when)

		startClock, errS := ParseClockTime(strings.TrimSpace(tbl.Cell(r, startIdx)))
		endClock, errE := ParseClockTime(strings.TrimSpace(tbl.Cell(r, endIdx)))
		if errS != nil || errE != nil {
			dropped++
			continue
		}
		if endClock.Minutes() <= startClock.Minutes() {
			return nil, dropped, &InvalidShiftError{Agent: agent, Date: date, Start: startClock, End: endClock}
		}

		start, okS := atClock(date, startClock, loc)
		end, okE := atClock(date, endClock, loc)
		if !okS || !okE {
			dropped++
			continue
		}

		key := AgentDate{Agent: agent, Date: date}
		if _, exists := windows[key]; exists {
			return nil, dropped, &DuplicateWindowError{Agent: agent, Date: date}
		}

		team := ""
		if teamIdx >= 0 {
			team = strings.TrimSpace(tbl.Cell(r, teamIdx))
		}
		windows[key] = ShiftWindow{Agent: agent, Date: date, Team: team, Start: start, End: end}
	}
	return windows, dropped, nil
}

// atClock combines a calendar date with a local time of day in loc, applying
// the same DST validity rules as event timestamps.
func atClock(d Date, c ClockTime, loc *time.Location) (time.Time, bool) {
	naive := time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, time.UTC)
	return localize(naive, loc)
}
