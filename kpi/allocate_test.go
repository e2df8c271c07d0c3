package kpi_test

import (
	"testing"
	"time"

	"github.com/warp/productivity-engine/kpi"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// at builds an instant on a fixed test date.
func at(h, m int) time.Time {
	return time.Date(2024, time.January, 1, h, m, 0, 0, time.UTC)
}

func totalAllocated(alloc map[int]time.Duration) time.Duration {
	var total time.Duration
	for _, d := range alloc {
		total += d
	}
	return total
}

// =============================================================================
// SPLIT_TIME SWEEP
// =============================================================================

func TestAllocateIntervals_SplitTime_TwoOverlapping(t *testing.T) {
	// GIVEN: Ticket1 09:00-10:00 and Ticket2 09:30-10:30 on one agent
	// WHEN: split_time allocation runs
	// THEN: 09:00-09:30 goes to Ticket1 (1800s), 09:30-10:00 is shared
	//       (900s each), 10:00-10:30 goes to Ticket2 (1800s)

	spans := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(10, 0)},
		{ID: 2, Start: at(9, 30), End: at(10, 30)},
	}

	alloc := kpi.AllocateIntervals(spans, kpi.PolicySplitTime)

	if got := alloc[1]; got != 45*time.Minute {
		t.Errorf("Ticket1: expected 2700s, got %v", got)
	}
	if got := alloc[2]; got != 45*time.Minute {
		t.Errorf("Ticket2: expected 2700s, got %v", got)
	}
	// Agent total matches the 90-minute union exactly.
	if got := totalAllocated(alloc); got != 90*time.Minute {
		t.Errorf("total: expected 5400s, got %v", got)
	}
}

func TestAllocateIntervals_CountFull_TwoOverlapping(t *testing.T) {
	// GIVEN: the same two overlapping tickets
	// WHEN: count_full allocation runs
	// THEN: each keeps its full hour; the overlap is double-counted

	spans := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(10, 0)},
		{ID: 2, Start: at(9, 30), End: at(10, 30)},
	}

	alloc := kpi.AllocateIntervals(spans, kpi.PolicyCountFull)

	if alloc[1] != time.Hour || alloc[2] != time.Hour {
		t.Errorf("expected one hour each, got %v and %v", alloc[1], alloc[2])
	}
	if got := totalAllocated(alloc); got != 2*time.Hour {
		t.Errorf("total: expected 7200s, got %v", got)
	}
}

func TestAllocateIntervals_SplitTime_Conservation(t *testing.T) {
	// GIVEN: three events covering 09:00-12:00 with a triple overlap
	// WHEN: split_time allocation runs
	// THEN: the total credit never exceeds the wall-clock union

	spans := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(11, 0)},
		{ID: 2, Start: at(10, 0), End: at(12, 0)},
		{ID: 3, Start: at(10, 30), End: at(11, 30)},
	}

	alloc := kpi.AllocateIntervals(spans, kpi.PolicySplitTime)

	union := 3 * time.Hour // contiguous coverage 09:00-12:00
	if got := totalAllocated(alloc); got > union {
		t.Errorf("total %v exceeds union %v", got, union)
	}
	if got := totalAllocated(alloc); got != union {
		t.Errorf("contiguous coverage should credit the union exactly, got %v", got)
	}
}

func TestAllocateIntervals_HalfOpenBoundaries(t *testing.T) {
	// GIVEN: two events meeting exactly at 10:00
	// WHEN: split_time allocation runs
	// THEN: neither is active in the other's segment; both keep full credit

	spans := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(10, 0)},
		{ID: 2, Start: at(10, 0), End: at(11, 0)},
	}

	alloc := kpi.AllocateIntervals(spans, kpi.PolicySplitTime)

	if alloc[1] != time.Hour {
		t.Errorf("first event: expected full hour, got %v", alloc[1])
	}
	if alloc[2] != time.Hour {
		t.Errorf("second event: expected full hour, got %v", alloc[2])
	}
}

func TestAllocateIntervals_ZeroLengthSpan(t *testing.T) {
	// GIVEN: a zero-length span (fully clipped event) next to a normal one
	// WHEN: either policy runs
	// THEN: the zero-length span appears in the result with zero credit

	spans := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(9, 0)},
		{ID: 2, Start: at(9, 0), End: at(10, 0)},
	}

	for _, policy := range []kpi.OverlapPolicy{kpi.PolicyCountFull, kpi.PolicySplitTime} {
		alloc := kpi.AllocateIntervals(spans, policy)
		got, ok := alloc[1]
		if !ok {
			t.Fatalf("%s: zero-length span missing from result", policy)
		}
		if got != 0 {
			t.Errorf("%s: zero-length span credited %v", policy, got)
		}
		if alloc[2] != time.Hour {
			t.Errorf("%s: normal span got %v", policy, alloc[2])
		}
	}
}

func TestAllocateIntervals_Empty(t *testing.T) {
	alloc := kpi.AllocateIntervals(nil, kpi.PolicySplitTime)
	if len(alloc) != 0 {
		t.Errorf("expected empty result, got %v", alloc)
	}
}

func TestAllocateIntervals_CountFullDominatesSplitTime(t *testing.T) {
	// GIVEN: an overlapping workload
	// WHEN: both policies run on identical input
	// THEN: count_full total >= split_time total, equal without overlaps

	spans := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(10, 30)},
		{ID: 2, Start: at(9, 15), End: at(9, 45)},
		{ID: 3, Start: at(11, 0), End: at(12, 0)},
	}

	full := totalAllocated(kpi.AllocateIntervals(spans, kpi.PolicyCountFull))
	split := totalAllocated(kpi.AllocateIntervals(spans, kpi.PolicySplitTime))
	if full < split {
		t.Errorf("count_full %v < split_time %v", full, split)
	}

	disjoint := []kpi.Span{
		{ID: 1, Start: at(9, 0), End: at(10, 0)},
		{ID: 2, Start: at(10, 0), End: at(11, 0)},
	}
	full = totalAllocated(kpi.AllocateIntervals(disjoint, kpi.PolicyCountFull))
	split = totalAllocated(kpi.AllocateIntervals(disjoint, kpi.PolicySplitTime))
	if full != split {
		t.Errorf("no overlap: expected equality, got %v vs %v", full, split)
	}
}

// =============================================================================
// PER-AGENT APPLICATION
// =============================================================================

func TestAllocateProductive_AgentsIndependent(t *testing.T) {
	// GIVEN: two agents working the same 09:00-10:00 interval
	// WHEN: split_time allocation runs
	// THEN: the events do not split against each other across agents

	events := []kpi.Event{
		{Agent: "A1", Start: at(9, 0), End: at(10, 0)},
		{Agent: "A2", Start: at(9, 0), End: at(10, 0)},
	}

	out := kpi.AllocateProductive(events, kpi.PolicySplitTime)

	for _, ev := range out {
		if ev.Productive != time.Hour {
			t.Errorf("agent %s: expected full hour, got %v", ev.Agent, ev.Productive)
		}
	}
}

func TestAllocateProductive_PreservesInput(t *testing.T) {
	// GIVEN: events passed to the allocator
	// WHEN: allocation runs
	// THEN: the input slice is untouched (stages are copy-forward)

	events := []kpi.Event{{Agent: "A1", Start: at(9, 0), End: at(10, 0)}}
	_ = kpi.AllocateProductive(events, kpi.PolicyCountFull)

	if events[0].Productive != 0 {
		t.Error("input event mutated by allocator")
	}
}
