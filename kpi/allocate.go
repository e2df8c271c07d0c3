/*
allocate.go - Overlap Allocator (pipeline stage 5)

PURPOSE:
  Distributes productive time among temporally overlapping events on the same
  agent, under a selectable policy:

  count_full   each event keeps its full clipped duration. Overlaps are
               double-counted on purpose (simultaneous handling credited
               additively).
  split_time   a sweep over the sorted boundary instants shares each segment
               equally among the events active in it. The sum credited within
               any segment never exceeds the segment's wall-clock length; it
               is a fairness policy, not a precise per-event attribution.

SEMANTICS:
  Intervals are half-open: an event ending exactly at a boundary is not
  active in the segment that starts there, so the instant events change is
  never credited twice. Agents are independent; processing order does not
  affect the result.

SEE ALSO:
  - aggregate.go: rolls the allocated credit into the output views
*/
package kpi

import (
	"sort"
	"time"
)

// Span is one interval submitted to the allocator. IDs are caller-chosen and
// must be unique within a call.
type Span struct {
	ID    int
	Start time.Time
	End   time.Time
}

// AllocateIntervals distributes time among the given spans under a policy
// and returns the allocated duration per span ID. Every submitted ID appears
// in the result, zero-length spans included.
//
// This is the boundary-sweep at the heart of the engine, kept free of Event
// so it can be exercised on bare (id, start, end) triples.
func AllocateIntervals(spans []Span, policy OverlapPolicy) map[int]time.Duration {
	alloc := make(map[int]time.Duration, len(spans))
	for _, s := range spans {
		alloc[s.ID] = 0
	}

	if policy != PolicySplitTime {
		// count_full: duration as-is, clamped.
		for _, s := range spans {
			if d := s.End.Sub(s.Start); d > 0 {
				alloc[s.ID] = d
			}
		}
		return alloc
	}

	// split_time: sweep the sorted boundary instants, maintaining the set of
	// currently active spans.
	type boundary struct {
		at    time.Time
		id    int
		opens bool
	}
	bounds := make([]boundary, 0, 2*len(spans))
	for _, s := range spans {
		if !s.End.After(s.Start) {
			continue
		}
		bounds = append(bounds,
			boundary{at: s.Start, id: s.ID, opens: true},
			boundary{at: s.End, id: s.ID, opens: false})
	}
	sort.Slice(bounds, func(i, j int) bool {
		if !bounds[i].at.Equal(bounds[j].at) {
			return bounds[i].at.Before(bounds[j].at)
		}
		// Closes before opens at the same instant: half-open intervals.
		return !bounds[i].opens && bounds[j].opens
	})

	active := make(map[int]struct{})
	var prev time.Time
	for i := 0; i < len(bounds); {
		at := bounds[i].at
		if len(active) > 0 && at.After(prev) {
			share := at.Sub(prev) / time.Duration(len(active))
			for id := range active {
				alloc[id] += share
			}
		}
		for i < len(bounds) && bounds[i].at.Equal(at) {
			if bounds[i].opens {
				active[bounds[i].id] = struct{}{}
			} else {
				delete(active, bounds[i].id)
			}
			i++
		}
		prev = at
	}
	return alloc
}

// AllocateProductive applies the overlap policy per agent and returns copies
// of the events with Productive filled in.
func AllocateProductive(events []Event, policy OverlapPolicy) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	byAgent := make(map[string][]int)
	for i, ev := range out {
		byAgent[ev.Agent] = append(byAgent[ev.Agent], i)
	}

	for _, idxs := range byAgent {
		spans := make([]Span, len(idxs))
		for j, i := range idxs {
			spans[j] = Span{ID: i, Start: out[i].Start, End: out[i].End}
		}
		alloc := AllocateIntervals(spans, policy)
		for _, i := range idxs {
			out[i].Productive = alloc[i]
		}
	}
	return out
}
