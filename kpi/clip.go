/*
clip.go - Window Clipper (pipeline stage 4)

PURPOSE:
  Intersects each event with its agent's shift window for that date, so that
  productivity is measured only within scheduled time. A ticket closed after
  hours cannot inflate utilization.

SEMANTICS:
  Left-join events to windows by (agent, date). The event's bounds become
  [max(start, shift_start), min(end, shift_end)]; an empty intersection, or
  no matching window at all, collapses to a zero-length interval. Replacing
  the bounds (not just the duration) keeps the allocator and the heatmap on
  in-shift intervals.

SEE ALSO:
  - allocate.go: sweeps the clipped intervals
*/
package kpi

// ClipToWindows returns clipped copies of the events plus the count of
// events whose (agent, date) had no shift window.
func ClipToWindows(events []Event, windows map[AgentDate]ShiftWindow) ([]Event, int) {
	out := make([]Event, len(events))
	unscheduled := 0
	for i, ev := range events {
		w, ok := windows[AgentDate{Agent: ev.Agent, Date: ev.Date}]
		if !ok {
			ev.End = ev.Start
			ev.Duration = 0
			unscheduled++
			out[i] = ev
			continue
		}

		start := ev.Start
		if w.Start.After(start) {
			start = w.Start
		}
		end := ev.End
		if w.End.Before(end) {
			end = w.End
		}
		if end.Before(start) {
			end = start
		}
		ev.Start = start
		ev.End = end
		ev.Duration = end.Sub(start)
		out[i] = ev
	}
	return out, unscheduled
}
