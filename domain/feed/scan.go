package feed

import (
	"sort"

	"mixaudit/domain/core"
)

// DistinctOperators returns the sorted set of operator names in the records
func DistinctOperators(records []IngredientRecord) []string {
	return distinct(records, func(r IngredientRecord) string { return r.Operator })
}

// DistinctFoodTypes returns the sorted set of food types in the records
func DistinctFoodTypes(records []IngredientRecord) []string {
	return distinct(records, func(r IngredientRecord) string { return r.FoodType })
}

// DistinctDietNames returns the sorted set of diet names in the records
func DistinctDietNames(records []IngredientRecord) []string {
	return distinct(records, func(r IngredientRecord) string { return r.DietName })
}

func distinct(records []IngredientRecord, key func(IngredientRecord) string) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		v := key(r)
		if v != "" {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DateSpan returns the earliest and latest record dates. The second
// return is false when there are no records with a usable date.
func DateSpan(records []IngredientRecord) (core.Day, core.Day, bool) {
	var min, max core.Day
	found := false
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		if !found {
			min, max = r.Date, r.Date
			found = true
			continue
		}
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max, found
}
