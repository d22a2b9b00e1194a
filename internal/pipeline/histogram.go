package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mixaudit/domain/analysis"
)

// maxBinCount caps the Freedman-Diaconis bin count for very large or
// very spread-out samples so the rendered chart stays readable.
const maxBinCount = 100

// Bins derives the deviation histogram. Bin width follows the
// Freedman-Diaconis rule, width = 2*IQR*n^(-1/3), with the same
// quartile method as the outlier fences; bin count is
// ceil((max-min)/width), at least 1 and at most maxBinCount. Edges
// span exactly the observed range, so bin counts always sum to
// len(values). A degenerate width (zero IQR) falls back to a single
// bin with a 0.5 margin around the observed range. Each bin is
// classified against the injected tolerance threshold from its
// midpoint.
func Bins(values []float64, threshold float64) analysis.HistogramBinSet {
	set := analysis.HistogramBinSet{Threshold: threshold}
	n := len(values)
	if n == 0 {
		return set
	}

	min := floats.Min(values)
	max := floats.Max(values)

	bounds, _ := Bounds(values)
	width := 2 * bounds.IQR * math.Pow(float64(n), -1.0/3.0)
	if width <= 0 || math.IsNaN(width) {
		// No spread between the quartiles: one bin catches everything
		lower, upper := min-0.5, max+0.5
		set.Bins = []analysis.HistogramBin{
			classify(lower, upper, n, upper, threshold),
		}
		return set
	}

	binCount := int(math.Ceil((max - min) / width))
	if binCount < 1 {
		binCount = 1
	}
	if binCount > maxBinCount {
		binCount = maxBinCount
	}

	edges := make([]float64, binCount+1)
	floats.Span(edges, min, max)

	// stat.Histogram requires sorted samples and a strict upper
	// divider, so count against a copy whose last edge is nudged past
	// the maximum. The reported bins keep the exact edges.
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[len(dividers)-1] = math.Nextafter(edges[len(edges)-1], math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	maxEdge := edges[len(edges)-1]
	set.Bins = make([]analysis.HistogramBin, binCount)
	for i := 0; i < binCount; i++ {
		set.Bins[i] = classify(edges[i], edges[i+1], int(counts[i]), maxEdge, threshold)
	}
	return set
}

// classify assigns the color class and intensity of one bin from its
// midpoint. At or past the threshold the bar reads as a violation,
// deepening with distance toward the final edge; below the threshold
// it reads as compliant, deepening with proximity to zero deviation.
func classify(lower, upper float64, count int, maxEdge, threshold float64) analysis.HistogramBin {
	bin := analysis.HistogramBin{
		LowerEdge: lower,
		UpperEdge: upper,
		Count:     count,
	}
	mid := (lower + upper) / 2
	if mid >= threshold {
		bin.ColorClass = analysis.ColorAboveTolerance
		if maxEdge > threshold {
			bin.Intensity = math.Min((mid-threshold)/(maxEdge-threshold), 1)
		} else {
			bin.Intensity = 1
		}
	} else {
		bin.ColorClass = analysis.ColorWithinTolerance
		if threshold > 0 {
			bin.Intensity = math.Min((threshold-mid)/threshold, 1)
		} else {
			bin.Intensity = 1
		}
	}
	return bin
}
