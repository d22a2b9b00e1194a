package pipeline

import (
	"github.com/montanaflynn/stats"

	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
)

// Bounds computes Tukey fences over values using the median-of-halves
// quartile rule. Bounds are recomputed per invocation and never reused
// across samples. An empty sample returns zero bounds and an error for
// the caller to map to a warning. A single value is its own quartiles.
func Bounds(values []float64) (analysis.OutlierBounds, error) {
	if len(values) == 0 {
		return analysis.OutlierBounds{}, core.ErrInsufficientData
	}

	var q1, q3 float64
	if len(values) == 1 {
		q1, q3 = values[0], values[0]
	} else {
		quartiles, err := stats.Quartile(values)
		if err != nil {
			return analysis.OutlierBounds{}, err
		}
		q1, q3 = quartiles.Q1, quartiles.Q3
	}

	iqr := q3 - q1
	return analysis.OutlierBounds{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerBound: q1 - 1.5*iqr,
		UpperBound: q3 + 1.5*iqr,
	}, nil
}

// Exclude returns the values surviving the fences. ExcludeAbove drops
// only values past the upper fence; ExcludeBoth also drops values
// below the lower fence. A zero IQR excludes nothing: with no spread
// there is no fence. The input is never mutated.
func Exclude(values []float64, bounds analysis.OutlierBounds, mode analysis.ExclusionMode) []float64 {
	out := make([]float64, 0, len(values))
	if bounds.IQR == 0 {
		return append(out, values...)
	}
	for _, v := range values {
		if v > bounds.UpperBound {
			continue
		}
		if mode == analysis.ExcludeBoth && v < bounds.LowerBound {
			continue
		}
		out = append(out, v)
	}
	return out
}
