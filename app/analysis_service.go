// Package app orchestrates the deviation pipeline: one service runs
// the full normalize/filter/aggregate/summarize pass per request, and
// one builder renders the result as a markdown report.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
	"mixaudit/internal/errors"
	"mixaudit/internal/pipeline"
)

// AnalysisRequest carries one run's input table and every knob the
// engine needs. Nothing is read from ambient config here; callers
// resolve their profile first.
type AnalysisRequest struct {
	Table          feed.RawTable
	Schema         feed.ColumnSchema
	Filter         feed.FilterParams
	Weights        feed.RelativeWeightMap
	Threshold      float64
	BucketStep     float64
	Mode           analysis.ExclusionMode
	RemoveOutliers bool
}

// AnalysisService runs deviation analyses. Concurrent runs share
// nothing and are bounded by a weighted semaphore so a burst of
// uploads cannot pile up unbounded work.
type AnalysisService struct {
	sem *semaphore.Weighted
}

// NewAnalysisService creates a service allowing at most maxConcurrent
// simultaneous runs
func NewAnalysisService(maxConcurrent int) *AnalysisService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &AnalysisService{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Run executes the full pass: normalize, filter, aggregate, histogram
// and two-basis summary. Recoverable conditions accumulate as
// warnings in the result's diagnostics; only a missing required
// column or invalid request aborts the run.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*analysis.AnalysisResult, error) {
	if err := req.Filter.Validate(); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	if err := req.Weights.Validate(); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.AnalysisError("acquire run slot", err)
	}
	defer s.sem.Release(1)

	started := time.Now()
	runID := core.NewRunID()

	diag := analysis.Diagnostics{
		RunID:       runID,
		Fingerprint: req.Table.Fingerprint(),
	}

	records, normReport, err := pipeline.Normalize(req.Table, req.Schema)
	if err != nil {
		return nil, err
	}
	if normReport.DroppedRows > 0 {
		diag.Add(analysis.Warning{
			Code:    analysis.WarnCoercion,
			Message: fmt.Sprintf("%d rows dropped during coercion", normReport.DroppedRows),
			Count:   normReport.DroppedRows,
			Detail:  coercionDetail(normReport),
		})
	}

	filtered := pipeline.Filter(records, req.Filter)

	aggregates, aggReport := pipeline.Aggregate(filtered, req.Weights)
	for _, code := range aggReport.ZeroMassBatches {
		diag.Addf(analysis.WarnDivisionUndefined,
			"batch %s excluded: total adjusted quantity is zero", code)
	}

	result := &analysis.AnalysisResult{
		RunID:       runID,
		GeneratedAt: core.NewTimestamp(started),
		Aggregates:  aggregates,
		Diagnostics: diag,
		RecordsIn:   len(req.Table.Rows),
		RecordsUsed: len(filtered),
		Weights:     req.Weights,
		Threshold:   req.Threshold,
		BucketStep:  req.BucketStep,
		Mode:        req.Mode,
	}
	result.PeriodStart, result.PeriodEnd = period(req.Filter, filtered)

	values := result.Values()
	if len(values) == 0 {
		result.Diagnostics.Addf(analysis.WarnEmptyResult,
			"no batches left after filtering and aggregation")
		result.Histogram = analysis.HistogramBinSet{Threshold: req.Threshold}
		result.Summary = pipeline.Summarize(values, req.Threshold, req.BucketStep, req.Mode)
		s.logRun(result, normReport, time.Since(started))
		return result, nil
	}

	bounds, err := pipeline.Bounds(values)
	if err != nil {
		return nil, errors.AnalysisError("outlier bounds", err)
	}
	result.Bounds = bounds

	histValues := values
	if req.RemoveOutliers {
		histValues = pipeline.Exclude(values, bounds, req.Mode)
		result.OutliersCut = true
		result.ExcludedPcts = cutValues(values, histValues)
	}

	result.Histogram = pipeline.Bins(histValues, req.Threshold)
	result.Summary = pipeline.Summarize(values, req.Threshold, req.BucketStep, req.Mode)

	s.logRun(result, normReport, time.Since(started))
	return result, nil
}

func (s *AnalysisService) logRun(result *analysis.AnalysisResult, norm pipeline.NormalizeReport, elapsed time.Duration) {
	log.Info().
		Str("run_id", result.RunID.String()).
		Int("rows_in", norm.RowsIn).
		Int("rows_dropped", norm.DroppedRows).
		Int("records_used", result.RecordsUsed).
		Int("batches", len(result.Aggregates)).
		Int("warnings", len(result.Diagnostics.Warnings)).
		Dur("elapsed", elapsed).
		Msg("analysis run complete")
}

// period reports the window the result covers: the explicit filter
// bounds when set, otherwise the span of the surviving records.
func period(f feed.FilterParams, records []feed.IngredientRecord) (core.Day, core.Day) {
	start, end := f.Start, f.End
	if start.IsZero() && end.IsZero() {
		if lo, hi, ok := feed.DateSpan(records); ok {
			return lo, hi
		}
	}
	return start, end
}

func coercionDetail(r pipeline.NormalizeReport) []string {
	detail := make([]string, 0, len(r.DroppedByField))
	for _, field := range []string{"batch_code", "planned_kg", "realized_kg", "pct_difference", "date"} {
		if n, ok := r.DroppedByField[field]; ok {
			detail = append(detail, fmt.Sprintf("%s: %d", field, n))
		}
	}
	return detail
}

func cutValues(all, kept []float64) []float64 {
	remaining := make(map[float64]int, len(kept))
	for _, v := range kept {
		remaining[v]++
	}
	var cut []float64
	for _, v := range all {
		if remaining[v] > 0 {
			remaining[v]--
			continue
		}
		cut = append(cut, v)
	}
	return cut
}
