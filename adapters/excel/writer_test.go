package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

func sampleResult() *analysis.AnalysisResult {
	return &analysis.AnalysisResult{
		RunID:       core.NewRunID(),
		GeneratedAt: core.NewTimestamp(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		Aggregates: []feed.BatchAggregate{
			{BatchCode: "B1", WeightedAvgPct: 1.25, Date: core.DayOf(2024, 5, 15), Operator: "maria", DietName: "finishing"},
			{BatchCode: "B2", WeightedAvgPct: 4.5, Date: core.DayOf(2024, 5, 15), Operator: "joao", DietName: "starter"},
			{BatchCode: "B3", WeightedAvgPct: 9.75, Date: core.DayOf(2024, 5, 16), Operator: "maria", DietName: "starter"},
		},
		Threshold:  3.0,
		BucketStep: 2.0,
	}
}

func TestWorkbookExporterRendersRows(t *testing.T) {
	exp := NewWorkbookExporter()
	assert.Equal(t, "processed-batches", exp.Name())
	assert.Equal(t, "xlsx", exp.Extension())

	data, err := exp.Render(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Contains(t, f.GetSheetList(), sheetName)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Batch Code", rows[0][0])
	assert.Equal(t, "B1", rows[1][0])
	assert.Equal(t, "2024-05-15", rows[1][2])
	assert.Equal(t, "maria", rows[1][3])
	assert.Equal(t, "starter", rows[3][4])

	got, err := f.GetCellValue(sheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "1.25", got)
}

func TestWorkbookExporterStylesPerSeverity(t *testing.T) {
	data, err := NewWorkbookExporter().Render(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	okStyle, err := f.GetCellStyle(sheetName, "B2")
	require.NoError(t, err)
	extremeStyle, err := f.GetCellStyle(sheetName, "B4")
	require.NoError(t, err)
	assert.NotEqual(t, okStyle, extremeStyle)
}

func TestStylePickBands(t *testing.T) {
	s := styleSet{ok: 1, light: 2, intense: 3, extreme: 4}

	assert.Equal(t, 1, s.pick(2.9, 3, 2))
	assert.Equal(t, 1, s.pick(3, 3, 2))
	assert.Equal(t, 2, s.pick(4.2, 3, 2))
	assert.Equal(t, 2, s.pick(5, 3, 2))
	assert.Equal(t, 3, s.pick(6.8, 3, 2))
	assert.Equal(t, 3, s.pick(7, 3, 2))
	assert.Equal(t, 4, s.pick(7.01, 3, 2))
	assert.Equal(t, 4, s.pick(30, 3, 2))
}

func TestWorkbookExporterEmptyResult(t *testing.T) {
	res := &analysis.AnalysisResult{Threshold: 3, BucketStep: 2}
	data, err := NewWorkbookExporter().Render(res)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
