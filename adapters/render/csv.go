// Package render produces the downloadable report artifacts: the
// statistics CSV and the histogram SVG.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"mixaudit/domain/analysis"
	"mixaudit/internal/errors"
)

// StatsExporter writes the two-basis statistics table as CSV, one
// metric per row with a column per basis.
type StatsExporter struct{}

// NewStatsExporter creates the statistics CSV exporter
func NewStatsExporter() *StatsExporter {
	return &StatsExporter{}
}

func (e *StatsExporter) Name() string { return "statistics" }

func (e *StatsExporter) Extension() string { return "csv" }

// Render serializes the summary into CSV bytes
func (e *StatsExporter) Render(result *analysis.AnalysisResult) ([]byte, error) {
	s := result.Summary

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"metric", "with_outliers", "without_outliers"},
		{"Batches", strconv.Itoa(s.CountWith), strconv.Itoa(s.CountWithout)},
		{"Mean (%)", fmtPct(s.MeanWith), fmtPct(s.MeanWithout)},
		{"Median (%)", fmtPct(s.MedianWith), fmtPct(s.MedianWithout)},
	}
	for i, b := range s.BucketsWith {
		count := [2]string{strconv.Itoa(b.Count), ""}
		share := [2]string{fmtPct(b.Percent), ""}
		if i < len(s.BucketsWithout) {
			count[1] = strconv.Itoa(s.BucketsWithout[i].Count)
			share[1] = fmtPct(s.BucketsWithout[i].Percent)
		}
		rows = append(rows,
			[]string{b.Label + " (count)", count[0], count[1]},
			[]string{b.Label + " (% of batches)", share[0], share[1]},
		)
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, errors.RenderError("write statistics csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.RenderError("flush statistics csv", err)
	}
	return buf.Bytes(), nil
}

func fmtPct(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
