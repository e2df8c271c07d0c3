package kpi_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/productivity-engine/kpi"
	"github.com/warp/productivity-engine/tabular"
)

func ticketTable(rows ...[]string) tabular.Table {
	return tabular.Table{
		Columns: []string{"agent", "ticket_id", "category", "start_ts", "end_ts"},
		Rows:    rows,
	}
}

func callTable(rows ...[]string) tabular.Table {
	return tabular.Table{
		Columns: []string{"agent", "call_id", "category", "start_ts", "end_ts", "duration_seconds"},
		Rows:    rows,
	}
}

// =============================================================================
// STRUCTURAL VALIDATION
// =============================================================================

func TestNormalizeEvents_MissingColumnIsStructural(t *testing.T) {
	// GIVEN: a ticket table without the end_ts column
	// WHEN: normalization runs
	// THEN: the run aborts with an error naming the column and table

	tbl := tabular.Table{
		Columns: []string{"agent", "category", "start_ts"},
		Rows:    [][]string{{"A1", "Billing", "2024-01-01 09:00:00"}},
	}

	_, _, err := kpi.NormalizeEvents(tbl, kpi.DefaultTicketSchema(), kpi.SourceTicket, time.UTC)
	if !errors.Is(err, kpi.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !kpi.IsStructural(err) {
		t.Error("missing column should be structural")
	}

	var mce *kpi.MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatal("expected *MissingColumnError")
	}
	if mce.Column != "end_ts" || mce.Table != "Ticket" {
		t.Errorf("unexpected error detail: %+v", mce)
	}
}

// =============================================================================
// ROW-LEVEL PARSING
// =============================================================================

func TestNormalizeEvents_DropsUnparseableRows(t *testing.T) {
	// GIVEN: one good row, one with a malformed timestamp, one blank agent
	// WHEN: normalization runs
	// THEN: the bad rows are dropped and counted, not fatal

	tbl := ticketTable(
		[]string{"A1", "T1", "Billing", "2024-01-01 09:00:00", "2024-01-01 10:00:00"},
		[]string{"A1", "T2", "Billing", "not-a-time", "2024-01-01 10:00:00"},
		[]string{"", "T3", "Billing", "2024-01-01 09:00:00", "2024-01-01 10:00:00"},
	)

	events, dropped, err := kpi.NormalizeEvents(tbl, kpi.DefaultTicketSchema(), kpi.SourceTicket, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if dropped != 2 {
		t.Errorf("expected 2 dropped rows, got %d", dropped)
	}

	ev := events[0]
	if ev.Agent != "A1" || ev.Source != kpi.SourceTicket {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.Duration != time.Hour {
		t.Errorf("expected 1h duration, got %v", ev.Duration)
	}
	if ev.Date != (kpi.Date{Year: 2024, Month: time.January, Day: 1}) {
		t.Errorf("unexpected date: %v", ev.Date)
	}
}

func TestNormalizeEvents_NegativeDurationClamped(t *testing.T) {
	// GIVEN: a row whose end precedes its start
	// WHEN: normalization runs
	// THEN: the derived duration clamps to zero, never negative

	tbl := ticketTable(
		[]string{"A1", "T1", "Billing", "2024-01-01 10:00:00", "2024-01-01 09:00:00"},
	)

	events, _, err := kpi.NormalizeEvents(tbl, kpi.DefaultTicketSchema(), kpi.SourceTicket, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Duration != 0 {
		t.Errorf("expected clamped duration 0, got %v", events[0].Duration)
	}
}

func TestNormalizeEvents_SuppliedDurationUsedWhenFullyPopulated(t *testing.T) {
	// GIVEN: a call table whose duration column is populated on every row
	// WHEN: normalization runs
	// THEN: the supplied values win over end-start

	tbl := callTable(
		[]string{"A1", "C1", "Support", "2024-01-01 09:00:00", "2024-01-01 10:00:00", "120"},
		[]string{"A1", "C2", "Support", "2024-01-01 11:00:00", "2024-01-01 12:00:00", "300"},
	)

	events, _, err := kpi.NormalizeEvents(tbl, kpi.DefaultCallSchema(), kpi.SourceCall, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Duration != 2*time.Minute {
		t.Errorf("expected supplied 120s, got %v", events[0].Duration)
	}
	if events[1].Duration != 5*time.Minute {
		t.Errorf("expected supplied 300s, got %v", events[1].Duration)
	}
}

func TestNormalizeEvents_IncompleteDurationColumnRederived(t *testing.T) {
	// GIVEN: a call table with one blank duration cell
	// WHEN: normalization runs
	// THEN: a single gap disqualifies the column; all rows derive end-start

	tbl := callTable(
		[]string{"A1", "C1", "Support", "2024-01-01 09:00:00", "2024-01-01 10:00:00", "120"},
		[]string{"A1", "C2", "Support", "2024-01-01 11:00:00", "2024-01-01 12:00:00", ""},
	)

	events, _, err := kpi.NormalizeEvents(tbl, kpi.DefaultCallSchema(), kpi.SourceCall, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, ev := range events {
		if ev.Duration != time.Hour {
			t.Errorf("row %d: expected derived 1h, got %v", i, ev.Duration)
		}
	}
}

// =============================================================================
// TIMEZONE LOCALIZATION
// =============================================================================

func TestNormalizeEvents_NaiveTimestampsLocalized(t *testing.T) {
	// GIVEN: naive timestamps and a run timezone
	// WHEN: normalization runs
	// THEN: the wall clock is preserved in that zone

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tbl := ticketTable(
		[]string{"A1", "T1", "Billing", "2024-01-01 09:00:00", "2024-01-01 10:00:00"},
	)

	events, _, err := kpi.NormalizeEvents(tbl, kpi.DefaultTicketSchema(), kpi.SourceTicket, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := events[0]
	if ev.Start.Hour() != 9 || ev.Start.Location() != loc {
		t.Errorf("expected 09:00 in %v, got %v", loc, ev.Start)
	}
}

func TestNormalizeEvents_ZonedTimestampsKept(t *testing.T) {
	// GIVEN: timestamps that carry their own offset
	// WHEN: normalization runs with a different run timezone
	// THEN: the instant is preserved, expressed in the run zone

	tbl := ticketTable(
		[]string{"A1", "T1", "Billing", "2024-01-01T09:00:00+05:30", "2024-01-01T10:00:00+05:30"},
	)

	events, _, err := kpi.NormalizeEvents(tbl, kpi.DefaultTicketSchema(), kpi.SourceTicket, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Start.Hour() != 3 || events[0].Start.Minute() != 30 {
		t.Errorf("expected 03:30 UTC, got %v", events[0].Start)
	}
}

func TestNormalizeEvents_DSTInvalidWallTimesDropped(t *testing.T) {
	// GIVEN: a zone with DST and wall times in the gap and the repeat
	// WHEN: normalization runs
	// THEN: both rows are dropped as unparseable - a defined outcome

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tbl := ticketTable(
		// Spring-forward gap: 02:30 does not exist on 2024-03-10.
		[]string{"A1", "T1", "Billing", "2024-03-10 02:30:00", "2024-03-10 04:00:00"},
		// Fall-back repeat: 01:30 occurs twice on 2024-11-03.
		[]string{"A1", "T2", "Billing", "2024-11-03 01:30:00", "2024-11-03 03:00:00"},
		// Control row well clear of any transition.
		[]string{"A1", "T3", "Billing", "2024-06-01 09:00:00", "2024-06-01 10:00:00"},
	)

	events, dropped, err := kpi.NormalizeEvents(tbl, kpi.DefaultTicketSchema(), kpi.SourceTicket, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != 2 {
		t.Errorf("expected 2 DST-invalid rows dropped, got %d", dropped)
	}
	if len(events) != 1 || events[0].Start.Hour() != 9 {
		t.Errorf("expected only the control row, got %+v", events)
	}
}

func TestNormalizeEvents_TeamColumnOptional(t *testing.T) {
	// GIVEN: a table carrying the configured team column
	// WHEN: normalization runs
	// THEN: team is attributed; absent column means empty team

	tbl := tabular.Table{
		Columns: []string{"agent", "category", "start_ts", "end_ts", "team"},
		Rows: [][]string{
			{"A1", "Billing", "2024-01-01 09:00:00", "2024-01-01 10:00:00", "Tier1"},
		},
	}
	schema := kpi.DefaultTicketSchema()
	schema.Team = "team"

	events, _, err := kpi.NormalizeEvents(tbl, schema, kpi.SourceTicket, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Team != "Tier1" {
		t.Errorf("expected team Tier1, got %q", events[0].Team)
	}
}
