/*
categories.go - Category Mapper (pipeline stage 2)

PURPOSE:
  Resolves free-text category labels into the canonical taxonomy via a
  synonym table. Matching is case-insensitive; a canonical name is always a
  valid synonym of itself, even when it lists no synonyms. Anything else
  collapses to "Other" - a deliberate simplification so every event lands in
  exactly one bucket.

SEE ALSO:
  - config: loads the mapping from JSON, with {"Other": []} as the
    degraded fallback when the file is unreadable
*/
package kpi

import "strings"

// CategoryOther is the bucket for unrecognized or missing labels.
const CategoryOther = "Other"

// CategoryMapping maps each canonical category name to its raw-label
// synonyms. Loaded once per run.
type CategoryMapping map[string][]string

// DefaultCategoryMapping is the degraded fallback: every label maps to Other.
func DefaultCategoryMapping() CategoryMapping {
	return CategoryMapping{CategoryOther: {}}
}

// reverse builds the lowercased synonym -> canonical lookup. Canonical names
// are seeded first so they always match themselves.
func (m CategoryMapping) reverse() map[string]string {
	lookup := make(map[string]string, len(m))
	for canonical := range m {
		lookup[strings.ToLower(canonical)] = canonical
	}
	for canonical, synonyms := range m {
		for _, s := range synonyms {
			lookup[strings.ToLower(s)] = canonical
		}
	}
	return lookup
}

// MapCategories returns a copy of the events with CategoryMapped filled in.
func MapCategories(events []Event, mapping CategoryMapping) []Event {
	lookup := mapping.reverse()
	out := make([]Event, len(events))
	for i, ev := range events {
		raw := strings.ToLower(strings.TrimSpace(ev.CategoryRaw))
		canonical, ok := lookup[raw]
		if raw == "" || !ok {
			canonical = CategoryOther
		}
		ev.CategoryMapped = canonical
		out[i] = ev
	}
	return out
}
