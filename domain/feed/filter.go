package feed

import (
	"mixaudit/domain/core"
)

// SelectAll is the sentinel selection value meaning "no restriction"
// for a categorical filter dimension.
const SelectAll = "ALL"

// FilterParams selects a subset of records. The date range is inclusive
// on both ends. Each categorical selection is a set of allowed values;
// an empty set or one containing SelectAll imposes no restriction on
// its dimension. Dimensions combine with AND, values within a
// dimension with OR.
type FilterParams struct {
	Start     core.Day `json:"start"`
	End       core.Day `json:"end"`
	Operators []string `json:"operators"`
	FoodTypes []string `json:"food_types"`
	DietNames []string `json:"diet_names"`
}

// Unrestricted reports whether a categorical selection imposes no restriction
func Unrestricted(selection []string) bool {
	if len(selection) == 0 {
		return true
	}
	for _, v := range selection {
		if v == SelectAll {
			return true
		}
	}
	return false
}

// contains reports set membership for a categorical selection
func contains(selection []string, v string) bool {
	for _, s := range selection {
		if s == v {
			return true
		}
	}
	return false
}

// Matches reports whether a record passes every dimension of the filter.
// A zero Start or End leaves that side of the range open.
func (p FilterParams) Matches(r IngredientRecord) bool {
	if !p.Start.IsZero() && r.Date.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && r.Date.After(p.End) {
		return false
	}
	if !Unrestricted(p.Operators) && !contains(p.Operators, r.Operator) {
		return false
	}
	if !Unrestricted(p.FoodTypes) && !contains(p.FoodTypes, r.FoodType) {
		return false
	}
	if !Unrestricted(p.DietNames) && !contains(p.DietNames, r.DietName) {
		return false
	}
	return true
}

// Validate checks the date range is well formed
func (p FilterParams) Validate() error {
	if !p.Start.IsZero() && !p.End.IsZero() && p.Start.After(p.End) {
		return core.ErrInvalidRange
	}
	return nil
}
