package feed

import (
	"mixaudit/domain/core"
)

// RawRow is one unparsed row of tabular input, cells as strings.
type RawRow []string

// RawTable is the validated tabular input contract. Adapters (xlsx reader,
// API request body) produce it; the analysis core never opens files.
type RawTable struct {
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// ColumnIndex returns the index of the LAST header equal to name, or -1.
// Source sheets repeat section headers, and the rightmost occurrence is
// the data column.
func (t RawTable) ColumnIndex(name string) int {
	idx := -1
	for i, h := range t.Headers {
		if h == name {
			idx = i
		}
	}
	return idx
}

// IsEmpty reports whether the table has no data rows
func (t RawTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Fingerprint hashes headers plus rows for run traceability
func (t RawTable) Fingerprint() core.Fingerprint {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r
	}
	return core.ComputeTableFingerprint(t.Headers, rows)
}

// IngredientRecord is one normalized ingredient row of a mixing batch.
// PctDifference is always finite; rows whose numeric cells cannot be
// coerced never become records.
type IngredientRecord struct {
	BatchCode     string   `json:"batch_code"`
	FoodType      string   `json:"food_type"`
	PlannedKg     float64  `json:"planned_kg"`
	RealizedKg    float64  `json:"realized_kg"`
	PctDifference float64  `json:"pct_difference"`
	Operator      string   `json:"operator"`
	DietName      string   `json:"diet_name"`
	Date          core.Day `json:"date"`
}

// RelativeWeightMap maps a food type to its relative weight in [0, 1].
// It is supplied externally and is not required to sum to 1; the
// aggregator normalizes by total adjusted mass, not by weight sum.
type RelativeWeightMap map[string]float64

// WeightFor returns the weight for a food type. A food type with no
// entry weighs 1.0: absent means "full weight", never zero.
func (m RelativeWeightMap) WeightFor(foodType string) float64 {
	if m == nil {
		return 1.0
	}
	w, ok := m[foodType]
	if !ok {
		return 1.0
	}
	return w
}

// Validate checks every weight is in [0, 1]
func (m RelativeWeightMap) Validate() error {
	for foodType, w := range m {
		if w < 0 || w > 1 {
			return core.NewValidationError("weights."+foodType, "relative weight must be in [0, 1]")
		}
	}
	return nil
}

// BatchAggregate is the weighted deviation of one mixing batch.
// Immutable once computed; callers never mutate it.
type BatchAggregate struct {
	BatchCode      string   `json:"batch_code"`
	WeightedAvgPct float64  `json:"weighted_avg_pct"`
	Date           core.Day `json:"date"`
	Operator       string   `json:"operator"`
	DietName       string   `json:"diet_name"`
}
