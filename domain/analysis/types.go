package analysis

// OutlierBounds holds Tukey fences computed over one numeric sample.
// Quartiles use the median-of-halves rule: the sorted sample is split
// at the median and each half's median (interpolating the two central
// order statistics for even halves) gives Q1 and Q3. The method is
// fixed; bounds from one sample are never reused for another.
type OutlierBounds struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// ExclusionMode selects which Tukey fence the outlier filter applies
type ExclusionMode string

const (
	// ExcludeAbove drops only values beyond the upper fence
	ExcludeAbove ExclusionMode = "above"
	// ExcludeBoth drops values beyond either fence
	ExcludeBoth ExclusionMode = "both"
)

// Valid reports whether the mode is one of the known values
func (m ExclusionMode) Valid() bool {
	return m == ExcludeAbove || m == ExcludeBoth
}

// ColorClass classifies a histogram bar against the tolerance threshold
type ColorClass string

const (
	ColorWithinTolerance ColorClass = "within_tolerance"
	ColorAboveTolerance  ColorClass = "above_tolerance"
)

// HistogramBin is one bar of the deviation histogram. Intensity is in
// [0, 1] and scales the bar color: distance past the threshold for
// above-tolerance bins, proximity to zero for within-tolerance bins.
type HistogramBin struct {
	LowerEdge  float64    `json:"lower_edge"`
	UpperEdge  float64    `json:"upper_edge"`
	Count      int        `json:"count"`
	ColorClass ColorClass `json:"color_class"`
	Intensity  float64    `json:"intensity"`
}

// HistogramBinSet is the ordered sequence of bins covering the
// observed value range. Bin counts always sum to the input size.
type HistogramBinSet struct {
	Bins      []HistogramBin `json:"bins"`
	Threshold float64        `json:"threshold"`
}

// TotalCount sums the bin counts
func (h HistogramBinSet) TotalCount() int {
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	return total
}

// RangeBucket counts batches whose deviation falls in one labeled range
type RangeBucket struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// StatisticsSummary reports the deviation statistics on two bases:
// every batch, and the batches surviving outlier exclusion. The bases
// are separate tables with their own denominators.
type StatisticsSummary struct {
	CountWith      int           `json:"count_with"`
	CountWithout   int           `json:"count_without"`
	MeanWith       float64       `json:"mean_with"`
	MeanWithout    float64       `json:"mean_without"`
	MedianWith     float64       `json:"median_with"`
	MedianWithout  float64       `json:"median_without"`
	BucketsWith    []RangeBucket `json:"buckets_with"`
	BucketsWithout []RangeBucket `json:"buckets_without"`
}
