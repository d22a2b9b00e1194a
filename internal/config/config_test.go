package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/domain/analysis"
)

func TestDefaultProfile(t *testing.T) {
	c := Default()

	assert.Equal(t, "COD. BATIDA", c.Columns.BatchCode)
	assert.Equal(t, 2, c.Ingest.SkipRows)
	assert.True(t, c.Ingest.RemoveFirstColumn)
	assert.Equal(t, 3.0, c.Analysis.ToleranceThreshold)
	assert.Equal(t, 2.0, c.Analysis.BucketStep)
	assert.Equal(t, analysis.ExcludeAbove, c.Analysis.Mode())
	assert.Equal(t, 4, c.Analysis.MaxConcurrentRuns)
	assert.Equal(t, "America/Sao_Paulo", c.Analysis.Timezone)
	assert.Equal(t, 1.0, c.Slider.Default)

	require.NoError(t, c.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := []byte(`
columns:
  batch_code: "BATCH"
analysis:
  tolerance_threshold: 5.5
  exclusion_mode: both
ingest:
  skip_rows: 0
  remove_first_column: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	// Overrides applied, defaults kept for the rest
	assert.Equal(t, "BATCH", c.Columns.BatchCode)
	assert.Equal(t, "ALIMENTO", c.Columns.FoodType)
	assert.Equal(t, 5.5, c.Analysis.ToleranceThreshold)
	assert.Equal(t, analysis.ExcludeBoth, c.Analysis.Mode())
	assert.Equal(t, 0, c.Ingest.SkipRows)
	assert.False(t, c.Ingest.RemoveFirstColumn)
	assert.Equal(t, 2.0, c.Analysis.BucketStep)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mixaudit.yaml")

	c := Default()
	c.Analysis.ToleranceThreshold = 4.25
	c.Columns.Operator = "TRATADOR"
	require.NoError(t, Save(c, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4.25, loaded.Analysis.ToleranceThreshold)
	assert.Equal(t, "TRATADOR", loaded.Columns.Operator)
}

func TestValidateRejectsBrokenProfiles(t *testing.T) {
	c := Default()
	c.Ingest.SkipRows = -1
	require.Error(t, c.Validate())

	c = Default()
	c.Analysis.MaxConcurrentRuns = 0
	require.Error(t, c.Validate())

	c = Default()
	c.Columns.Date = ""
	require.Error(t, c.Validate())

	c = Default()
	c.Slider.Min = 2
	require.Error(t, c.Validate())
}

func TestModeFallsBackToOneSided(t *testing.T) {
	a := AnalysisConfig{ExclusionMode: "sideways"}
	assert.Equal(t, analysis.ExcludeAbove, a.Mode())
}
