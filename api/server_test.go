package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/app"
	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
	"mixaudit/internal/config"
	"mixaudit/internal/testkit"
)

func newTestServer() *Server {
	cfg := config.Default()
	cfg.Analysis.Timezone = "UTC"
	return NewServer(cfg, app.NewAnalysisService(2))
}

func sampleTable() feed.RawTable {
	records := testkit.Records(
		[4]interface{}{"B1", "corn", 100.0, 4.0},
		[4]interface{}{"B1", "mineral", 25.0, 4.0},
		[4]interface{}{"B2", "corn", 200.0, -1.5},
	)
	return testkit.Table(records, feed.DefaultColumnSchema())
}

func postAnalyze(t *testing.T, s *Server, req AnalyzeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httpReq)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer()

	rec := postAnalyze(t, s, AnalyzeRequest{Table: sampleTable()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result analysis.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.Len(t, result.Aggregates, 2)
	assert.Equal(t, "B1", result.Aggregates[0].BatchCode)
	assert.InDelta(t, 4.0, result.Aggregates[0].WeightedAvgPct, 1e-9)
	assert.Equal(t, "B2", result.Aggregates[1].BatchCode)
	assert.InDelta(t, 1.5, result.Aggregates[1].WeightedAvgPct, 1e-9)

	assert.Equal(t, 2, result.Summary.CountWith)
	assert.InDelta(t, 2.75, result.Summary.MeanWith, 1e-9)
	assert.Equal(t, 3, result.RecordsIn)
	assert.NotEmpty(t, result.RunID)
}

func TestAnalyzeAppliesWeights(t *testing.T) {
	s := newTestServer()

	records := testkit.Records(
		[4]interface{}{"B1", "corn", 100.0, 4.0},
		[4]interface{}{"B1", "mineral", 25.0, -10.0},
	)
	rec := postAnalyze(t, s, AnalyzeRequest{
		Table:   testkit.Table(records, feed.DefaultColumnSchema()),
		Weights: feed.RelativeWeightMap{"mineral": 0.0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result analysis.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	// B1 collapses to the corn rows once mineral mass is zeroed out
	require.Len(t, result.Aggregates, 1)
	assert.InDelta(t, 4.0, result.Aggregates[0].WeightedAvgPct, 1e-9)
}

func TestAnalyzeKnobsOverrideDefaults(t *testing.T) {
	s := newTestServer()

	threshold := 1.0
	step := 0.5
	rec := postAnalyze(t, s, AnalyzeRequest{
		Table:         sampleTable(),
		Threshold:     &threshold,
		BucketStep:    &step,
		ExclusionMode: string(analysis.ExcludeBoth),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result analysis.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1.0, result.Threshold)
	assert.Equal(t, 1.0, result.Histogram.Threshold)
	assert.Equal(t, 0.5, result.BucketStep)
	assert.Equal(t, analysis.ExcludeBoth, result.Mode)
}

func TestAnalyzeFilterCanEmptyResult(t *testing.T) {
	s := newTestServer()

	// Sample records are all dated 2024-05-15
	rec := postAnalyze(t, s, AnalyzeRequest{
		Table: sampleTable(),
		Filter: feed.FilterParams{
			Start: core.DayOf(2024, 6, 1),
			End:   core.DayOf(2024, 6, 30),
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result analysis.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Summary.CountWith)
	require.NotEmpty(t, result.Diagnostics.Warnings)

	found := false
	for _, warning := range result.Diagnostics.Warnings {
		if warning.Code == analysis.WarnEmptyResult {
			found = true
		}
	}
	assert.True(t, found, "expected an empty_result warning")
}

func TestAnalyzeMissingColumns(t *testing.T) {
	s := newTestServer()

	rec := postAnalyze(t, s, AnalyzeRequest{
		Table: feed.RawTable{
			Headers: []string{"COD. BATIDA", "ALIMENTO"},
			Rows:    []feed.RawRow{{"B1", "corn"}},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "missing required columns")
	assert.Contains(t, resp.Columns, "PREVISTO (KG)")
}

func TestAnalyzeRejectsBadWeights(t *testing.T) {
	s := newTestServer()

	rec := postAnalyze(t, s, AnalyzeRequest{
		Table:   sampleTable(),
		Weights: feed.RelativeWeightMap{"corn": 2.0},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "weights.corn")
}

func TestAnalyzeRejectsEmptyBody(t *testing.T) {
	s := newTestServer()

	httpReq := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httpReq)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDefaultsEndpoint(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/v1/defaults", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "columns")
	assert.Contains(t, resp, "analysis")
	assert.Contains(t, resp, "slider")
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
