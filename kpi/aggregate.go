/*
aggregate.go - Aggregator (pipeline stage 6)

PURPOSE:
  Three independent reductions over the allocated events:
  - Daily summary: productive/scheduled/idle seconds and utilization per
    (agent, date, team)
  - Category handle time: mean allocated seconds per (category, source)
  - Heatmap: productive seconds per (date, hour-of-clipped-start, team)

PRECISION:
  Utilization and averages are computed with decimal division rounded to two
  places. Output rows are emitted in a fixed sort order so identical inputs
  serialize to identical bytes.

SEE ALSO:
  - export.go: tabular renderings of the three views
*/
package kpi

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Aggregate rolls allocated events and the window table into the three
// output views.
func Aggregate(events []Event, windows map[AgentDate]ShiftWindow) ([]DailySummary, []CategoryHandleTime, []HeatmapCell) {
	return dailySummaries(events, windows), categoryHandleTimes(events), heatmap(events)
}

// =============================================================================
// DAILY PER-AGENT SUMMARY
// =============================================================================

type dailyKey struct {
	Agent string
	Date  Date
	Team  string
}

func dailySummaries(events []Event, windows map[AgentDate]ShiftWindow) []DailySummary {
	productive := make(map[dailyKey]time.Duration)
	for _, ev := range events {
		productive[dailyKey{Agent: ev.Agent, Date: ev.Date, Team: ev.Team}] += ev.Productive
	}

	out := make([]DailySummary, 0, len(productive))
	for key, prod := range productive {
		// Scheduled time joins on (agent, date); the window's own team label
		// is informational and does not gate the join.
		var scheduled time.Duration
		if w, ok := windows[AgentDate{Agent: key.Agent, Date: key.Date}]; ok {
			scheduled = w.Scheduled()
		}

		idle := scheduled - prod
		if idle < 0 {
			idle = 0
		}

		row := DailySummary{
			Agent:             key.Agent,
			Date:              key.Date,
			Team:              key.Team,
			ProductiveSeconds: prod.Seconds(),
			ScheduledSeconds:  scheduled.Seconds(),
			IdleSeconds:       idle.Seconds(),
		}
		if scheduled > 0 {
			pct := decimal.NewFromFloat(prod.Seconds()).
				Mul(hundred).
				Div(decimal.NewFromFloat(scheduled.Seconds())).
				Round(2)
			row.UtilizationPct = &pct
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Agent != out[j].Agent {
			return out[i].Agent < out[j].Agent
		}
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Team < out[j].Team
	})
	return out
}

// =============================================================================
// CATEGORY HANDLE TIME
// =============================================================================

type categoryKey struct {
	Category string
	Source   Source
}

func categoryHandleTimes(events []Event) []CategoryHandleTime {
	type bucket struct {
		total time.Duration
		count int
	}
	buckets := make(map[categoryKey]*bucket)
	for _, ev := range events {
		key := categoryKey{Category: ev.CategoryMapped, Source: ev.Source}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.total += ev.Productive
		b.count++
	}

	out := make([]CategoryHandleTime, 0, len(buckets))
	for key, b := range buckets {
		avg := decimal.NewFromFloat(b.total.Seconds()).
			Div(decimal.NewFromInt(int64(b.count))).
			Round(2)
		out = append(out, CategoryHandleTime{
			Category:         key.Category,
			Source:           key.Source,
			Events:           b.count,
			AvgHandleSeconds: avg,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// =============================================================================
// HEATMAP
// =============================================================================

type heatKey struct {
	Date Date
	Hour int
	Team string
}

func heatmap(events []Event) []HeatmapCell {
	cells := make(map[heatKey]time.Duration)
	for _, ev := range events {
		key := heatKey{Date: ev.Date, Hour: ev.Start.Hour(), Team: ev.Team}
		cells[key] += ev.Productive
	}

	out := make([]HeatmapCell, 0, len(cells))
	for key, total := range cells {
		out = append(out, HeatmapCell{
			Date:              key.Date,
			Hour:              key.Hour,
			Team:              key.Team,
			ProductiveSeconds: total.Seconds(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Team < out[j].Team
	})
	return out
}
