package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/domain/feed"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	cfg := DefaultGeneratorConfig()

	a := NewBatchGenerator(cfg).GenerateRecords()
	b := NewBatchGenerator(cfg).GenerateRecords()

	require.Equal(t, len(a), len(b))
	assert.Equal(t, a, b)
}

func TestGeneratorShape(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BatchCount = 10
	cfg.IngredientsPerBatch = 4

	records := NewBatchGenerator(cfg).GenerateRecords()

	require.Len(t, records, 40)
	codes := feed.DistinctOperators(records)
	assert.NotEmpty(t, codes)
	for _, r := range records {
		assert.NotEmpty(t, r.BatchCode)
		assert.NotEmpty(t, r.FoodType)
		assert.Greater(t, r.PlannedKg, 0.0)
		assert.False(t, r.Date.IsZero())
	}
}

func TestTableRoundTripsThroughSchema(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BatchCount = 5
	schema := feed.DefaultColumnSchema()

	table := NewBatchGenerator(cfg).GenerateTable(schema)

	require.Len(t, table.Headers, 8)
	require.Len(t, table.Rows, 5*cfg.IngredientsPerBatch)
	assert.Equal(t, schema.BatchCode, table.Headers[0])

	// Every rendered cell count matches the header count
	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Headers))
	}
}

func TestRecordsHelper(t *testing.T) {
	records := Records(
		[4]interface{}{"B1", "corn", 100, 4.0},
		[4]interface{}{"B1", "mineral", 50.0, -2},
	)

	require.Len(t, records, 2)
	assert.Equal(t, 100.0, records[0].PlannedKg)
	assert.Equal(t, -2.0, records[1].PctDifference)
}
