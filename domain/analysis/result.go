package analysis

import (
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

// AnalysisResult is everything one run produces. All fields are
// recomputed fully per run; nothing is cached across filter
// variations or mutated after the run returns.
type AnalysisResult struct {
	RunID       core.RunID            `json:"run_id"`
	GeneratedAt core.Timestamp        `json:"generated_at"`
	Aggregates  []feed.BatchAggregate `json:"aggregates"`
	Bounds      OutlierBounds         `json:"bounds"`
	Histogram   HistogramBinSet       `json:"histogram"`
	Summary     StatisticsSummary     `json:"summary"`
	Diagnostics Diagnostics           `json:"diagnostics"`

	// Echoes of the run inputs, for report headers and audit
	RecordsIn    int                    `json:"records_in"`
	RecordsUsed  int                    `json:"records_used"`
	PeriodStart  core.Day               `json:"period_start"`
	PeriodEnd    core.Day               `json:"period_end"`
	Weights      feed.RelativeWeightMap `json:"weights,omitempty"`
	Threshold    float64                `json:"threshold"`
	BucketStep   float64                `json:"bucket_step"`
	Mode         ExclusionMode          `json:"exclusion_mode"`
	OutliersCut  bool                   `json:"outliers_cut"`
	ExcludedPcts []float64              `json:"-"`
}

// Values returns the weighted deviation sequence of the aggregates
func (r *AnalysisResult) Values() []float64 {
	out := make([]float64, len(r.Aggregates))
	for i, a := range r.Aggregates {
		out[i] = a.WeightedAvgPct
	}
	return out
}
