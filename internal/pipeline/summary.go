package pipeline

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"mixaudit/domain/analysis"
)

// DefaultBucketStep is the width of the first two deviation buckets
const DefaultBucketStep = 2.0

// Summarize builds the two-basis statistics table over the weighted
// deviation values. The with-basis covers every value; the
// without-basis covers the values surviving Exclude with bounds
// computed on the with-basis. Each basis carries its own counts,
// mean, median and bucket table with its own denominator. An empty
// input produces zero counts and empty bucket tables, never an error.
func Summarize(values []float64, threshold, step float64, mode analysis.ExclusionMode) analysis.StatisticsSummary {
	summary := analysis.StatisticsSummary{}
	if len(values) == 0 {
		return summary
	}
	if step <= 0 {
		step = DefaultBucketStep
	}

	bounds, _ := Bounds(values)
	without := Exclude(values, bounds, mode)

	summary.CountWith = len(values)
	summary.CountWithout = len(without)
	summary.MeanWith, summary.MedianWith = centers(values)
	summary.MeanWithout, summary.MedianWithout = centers(without)
	summary.BucketsWith = buckets(values, threshold, step)
	summary.BucketsWithout = buckets(without, threshold, step)
	return summary
}

// centers returns mean and median, zero for an empty basis
func centers(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	return mean, median
}

// buckets counts values into the three ranges anchored at the
// threshold: [t, t+step), [t+step, t+2*step), [t+2*step, +inf).
// Percent is against this basis's own count, 0 when the basis is
// empty.
func buckets(values []float64, threshold, step float64) []analysis.RangeBucket {
	lo1, hi1 := threshold, threshold+step
	lo2, hi2 := threshold+step, threshold+2*step

	out := []analysis.RangeBucket{
		{Label: fmt.Sprintf("Deviation between %g%% and %g%%", lo1, hi1)},
		{Label: fmt.Sprintf("Deviation between %g%% and %g%%", lo2, hi2)},
		{Label: fmt.Sprintf("Deviation above %g%%", hi2)},
	}
	for _, v := range values {
		switch {
		case v >= lo1 && v < hi1:
			out[0].Count++
		case v >= lo2 && v < hi2:
			out[1].Count++
		case v >= hi2:
			out[2].Count++
		}
	}
	if n := len(values); n > 0 {
		for i := range out {
			out[i].Percent = float64(out[i].Count) / float64(n) * 100
		}
	}
	return out
}
