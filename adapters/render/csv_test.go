package render

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/domain/analysis"
)

func summaryFixture() analysis.StatisticsSummary {
	return analysis.StatisticsSummary{
		CountWith:     12,
		CountWithout:  11,
		MeanWith:      4.7,
		MeanWithout:   3.0,
		MedianWith:    3.0,
		MedianWithout: 3.0,
		BucketsWith: []analysis.RangeBucket{
			{Label: "Deviation between 3% and 5%", Count: 5, Percent: 41.6667},
			{Label: "Deviation between 5% and 7%", Count: 2, Percent: 16.6667},
			{Label: "Deviation above 7%", Count: 1, Percent: 8.3333},
		},
		BucketsWithout: []analysis.RangeBucket{
			{Label: "Deviation between 3% and 5%", Count: 5, Percent: 45.4545},
			{Label: "Deviation between 5% and 7%", Count: 2, Percent: 18.1818},
			{Label: "Deviation above 7%", Count: 0, Percent: 0},
		},
	}
}

func TestStatsExporterShape(t *testing.T) {
	exp := NewStatsExporter()
	assert.Equal(t, "statistics", exp.Name())
	assert.Equal(t, "csv", exp.Extension())

	data, err := exp.Render(&analysis.AnalysisResult{Summary: summaryFixture()})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 10)
	assert.Equal(t, []string{"metric", "with_outliers", "without_outliers"}, rows[0])
	assert.Equal(t, []string{"Batches", "12", "11"}, rows[1])
	assert.Equal(t, []string{"Mean (%)", "4.70", "3.00"}, rows[2])
	assert.Equal(t, []string{"Median (%)", "3.00", "3.00"}, rows[3])
	assert.Equal(t, []string{"Deviation between 3% and 5% (count)", "5", "5"}, rows[4])
	assert.Equal(t, []string{"Deviation between 3% and 5% (% of batches)", "41.67", "45.45"}, rows[5])
	assert.Equal(t, []string{"Deviation above 7% (count)", "1", "0"}, rows[8])
}

func TestStatsExporterEmptySummary(t *testing.T) {
	data, err := NewStatsExporter().Render(&analysis.AnalysisResult{})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Batches", "0", "0"}, rows[1])
}
