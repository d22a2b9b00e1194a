package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mixaudit/domain/feed"
)

// AggregateReport records the batches that could not produce a value
type AggregateReport struct {
	BatchesOut      int      `json:"batches_out"`
	ZeroMassBatches []string `json:"zero_mass_batches,omitempty"`
}

// batchGroup accumulates one batch's ingredient rows before the
// weighted mean is taken
type batchGroup struct {
	absPcts  []float64
	adjusted []float64
	first    feed.IngredientRecord
}

// Aggregate collapses ingredient rows into one weighted deviation per
// batch. Per row: adjusted = planned_kg * weight(food_type), with
// absent food types weighing 1.0; contribution = adjusted * |pct|.
// The batch value is sum(contribution) / sum(adjusted), the
// adjusted-mass-weighted mean of |pct|. A batch whose total adjusted
// mass is zero is excluded and reported rather than emitting NaN.
// Output is sorted by batch code so identical input yields identical
// output.
func Aggregate(records []feed.IngredientRecord, weights feed.RelativeWeightMap) ([]feed.BatchAggregate, AggregateReport) {
	groups := make(map[string]*batchGroup)
	order := make([]string, 0)

	for _, r := range records {
		adjusted := r.PlannedKg * weights.WeightFor(r.FoodType)
		g, ok := groups[r.BatchCode]
		if !ok {
			g = &batchGroup{first: r}
			groups[r.BatchCode] = g
			order = append(order, r.BatchCode)
		}
		g.absPcts = append(g.absPcts, math.Abs(r.PctDifference))
		g.adjusted = append(g.adjusted, adjusted)
	}

	sort.Strings(order)

	report := AggregateReport{}
	out := make([]feed.BatchAggregate, 0, len(order))
	for _, code := range order {
		g := groups[code]
		totalAdjusted := 0.0
		for _, a := range g.adjusted {
			totalAdjusted += a
		}
		if totalAdjusted == 0 {
			report.ZeroMassBatches = append(report.ZeroMassBatches, code)
			continue
		}
		out = append(out, feed.BatchAggregate{
			BatchCode:      code,
			WeightedAvgPct: stat.Mean(g.absPcts, g.adjusted),
			Date:           g.first.Date,
			Operator:       g.first.Operator,
			DietName:       g.first.DietName,
		})
	}
	report.BatchesOut = len(out)
	return out, report
}
