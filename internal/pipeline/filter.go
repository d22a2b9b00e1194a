package pipeline

import (
	"mixaudit/domain/feed"
)

// Filter returns the records matching every dimension of params.
// The input is never mutated; the result is a fresh slice. Applying
// the same params twice returns an identical set, and an empty result
// is a normal, reportable condition rather than an error.
func Filter(records []feed.IngredientRecord, params feed.FilterParams) []feed.IngredientRecord {
	out := make([]feed.IngredientRecord, 0, len(records))
	for _, r := range records {
		if params.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
