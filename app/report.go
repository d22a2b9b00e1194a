package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mixaudit/domain/analysis"
)

// ReportBuilder renders an analysis result as a markdown report. The
// UI converts it to HTML for the results page and the CLI writes it
// to disk next to the other artifacts.
type ReportBuilder struct {
	loc *time.Location
}

// NewReportBuilder creates a builder rendering timestamps in loc
func NewReportBuilder(loc *time.Location) *ReportBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportBuilder{loc: loc}
}

func (b *ReportBuilder) Name() string { return "report" }

func (b *ReportBuilder) Extension() string { return "md" }

// Render writes the report as markdown bytes
func (b *ReportBuilder) Render(result *analysis.AnalysisResult) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Feed mixing deviation report\n\n")
	fmt.Fprintf(&sb, "Generated %s, run `%s`.\n\n",
		result.GeneratedAt.Time().In(b.loc).Format("02/01/2006 15:04"), result.RunID)
	b.writeHeader(&sb, result)
	b.writeStatistics(&sb, result)
	b.writeFence(&sb, result)
	b.writeWeights(&sb, result)
	b.writeWarnings(&sb, result)

	return []byte(sb.String()), nil
}

func (b *ReportBuilder) writeHeader(sb *strings.Builder, result *analysis.AnalysisResult) {
	start, end := "...", "..."
	if !result.PeriodStart.IsZero() {
		start = result.PeriodStart.Time().Format("02/01/2006")
	}
	if !result.PeriodEnd.IsZero() {
		end = result.PeriodEnd.Time().Format("02/01/2006")
	}
	fmt.Fprintf(sb, "- Period: %s to %s\n", start, end)
	fmt.Fprintf(sb, "- Input rows: %d, used after filtering: %d\n", result.RecordsIn, result.RecordsUsed)
	fmt.Fprintf(sb, "- Batches analyzed: %d\n", len(result.Aggregates))
	fmt.Fprintf(sb, "- Tolerance threshold: %g%%, exclusion mode: %s\n\n", result.Threshold, result.Mode)
}

func (b *ReportBuilder) writeStatistics(sb *strings.Builder, result *analysis.AnalysisResult) {
	s := result.Summary
	fmt.Fprintf(sb, "## Statistics\n\n")
	fmt.Fprintf(sb, "| Metric | With outliers | Without outliers |\n")
	fmt.Fprintf(sb, "|---|---:|---:|\n")
	fmt.Fprintf(sb, "| Batches | %d | %d |\n", s.CountWith, s.CountWithout)
	fmt.Fprintf(sb, "| Mean (%%) | %.2f | %.2f |\n", s.MeanWith, s.MeanWithout)
	fmt.Fprintf(sb, "| Median (%%) | %.2f | %.2f |\n", s.MedianWith, s.MedianWithout)
	for i, bucket := range s.BucketsWith {
		with := fmt.Sprintf("%d (%.1f%%)", bucket.Count, bucket.Percent)
		without := ""
		if i < len(s.BucketsWithout) {
			w := s.BucketsWithout[i]
			without = fmt.Sprintf("%d (%.1f%%)", w.Count, w.Percent)
		}
		fmt.Fprintf(sb, "| %s | %s | %s |\n", bucket.Label, with, without)
	}
	sb.WriteString("\n")
}

func (b *ReportBuilder) writeFence(sb *strings.Builder, result *analysis.AnalysisResult) {
	if len(result.Aggregates) == 0 {
		return
	}
	bounds := result.Bounds
	fmt.Fprintf(sb, "## Outlier fence\n\n")
	fmt.Fprintf(sb, "| Q1 | Q3 | IQR | Upper bound |\n")
	fmt.Fprintf(sb, "|---:|---:|---:|---:|\n")
	fmt.Fprintf(sb, "| %.2f | %.2f | %.2f | %.2f |\n\n",
		bounds.Q1, bounds.Q3, bounds.IQR, bounds.UpperBound)
}

func (b *ReportBuilder) writeWeights(sb *strings.Builder, result *analysis.AnalysisResult) {
	if len(result.Weights) == 0 {
		return
	}
	types := make([]string, 0, len(result.Weights))
	for t := range result.Weights {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(sb, "## Relative weights\n\n")
	fmt.Fprintf(sb, "| Food type | Weight |\n")
	fmt.Fprintf(sb, "|---|---:|\n")
	for _, t := range types {
		fmt.Fprintf(sb, "| %s | %.1f |\n", t, result.Weights[t])
	}
	sb.WriteString("\n")
}

func (b *ReportBuilder) writeWarnings(sb *strings.Builder, result *analysis.AnalysisResult) {
	if !result.Diagnostics.HasWarnings() {
		return
	}
	fmt.Fprintf(sb, "## Warnings\n\n")
	for _, w := range result.Diagnostics.Warnings {
		fmt.Fprintf(sb, "- **%s**: %s", w.Code, w.Message)
		if len(w.Detail) > 0 {
			fmt.Fprintf(sb, " (%s)", strings.Join(w.Detail, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
