package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

// GeneratorConfig configures the synthetic batch dataset generator
type GeneratorConfig struct {
	BatchCount          int      `json:"batch_count"`
	IngredientsPerBatch int      `json:"ingredients_per_batch"`
	Operators           []string `json:"operators"`
	FoodTypes           []string `json:"food_types"`
	DietNames           []string `json:"diet_names"`
	StartDate           core.Day `json:"start_date"`
	DaySpan             int      `json:"day_span"`
	MeanPct             float64  `json:"mean_pct"`
	PctSpread           float64  `json:"pct_spread"`
	OutlierRate         float64  `json:"outlier_rate"`
	Seed                int64    `json:"seed"`
}

// DefaultGeneratorConfig returns a dataset shaped like a month of
// real mixing logs: a few operators, a handful of food types, mostly
// in-tolerance deviations with the occasional wild batch.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		BatchCount:          120,
		IngredientsPerBatch: 6,
		Operators:           []string{"maria", "joao", "ana"},
		FoodTypes:           []string{"corn silage", "ground corn", "soybean meal", "hay", "mineral mix"},
		DietNames:           []string{"growing", "finishing", "adaptation"},
		StartDate:           core.DayOf(2024, 5, 1),
		DaySpan:             30,
		MeanPct:             2.0,
		PctSpread:           1.5,
		OutlierRate:         0.04,
		Seed:                42,
	}
}

// BatchGenerator generates deterministic feed-mixing fixtures
type BatchGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewBatchGenerator creates a generator; the same seed always yields
// the same dataset.
func NewBatchGenerator(config GeneratorConfig) *BatchGenerator {
	return &BatchGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords produces normalized ingredient records
func (g *BatchGenerator) GenerateRecords() []feed.IngredientRecord {
	records := make([]feed.IngredientRecord, 0, g.config.BatchCount*g.config.IngredientsPerBatch)

	for b := 0; b < g.config.BatchCount; b++ {
		code := fmt.Sprintf("B%04d", b+1)
		operator := g.pick(g.config.Operators)
		diet := g.pick(g.config.DietNames)
		day := g.config.StartDate.Time().AddDate(0, 0, g.rng.Intn(g.config.DaySpan))

		// One wild batch in a while, far past any sane tolerance
		batchBias := 0.0
		if g.rng.Float64() < g.config.OutlierRate {
			batchBias = 10 + g.rng.Float64()*15
		}

		for i := 0; i < g.config.IngredientsPerBatch; i++ {
			planned := 20 + g.rng.Float64()*480
			pct := g.config.MeanPct + g.rng.NormFloat64()*g.config.PctSpread + batchBias
			if g.rng.Float64() < 0.5 {
				pct = -pct
			}
			realized := planned * (1 + pct/100)

			records = append(records, feed.IngredientRecord{
				BatchCode:     code,
				FoodType:      g.config.FoodTypes[i%len(g.config.FoodTypes)],
				PlannedKg:     round2(planned),
				RealizedKg:    round2(realized),
				PctDifference: round2(pct),
				Operator:      operator,
				DietName:      diet,
				Date:          core.NewDay(day),
			})
		}
	}
	return records
}

// GenerateTable renders records as a raw table under the given schema,
// the way an export sheet would present them.
func (g *BatchGenerator) GenerateTable(schema feed.ColumnSchema) feed.RawTable {
	return Table(g.GenerateRecords(), schema)
}

// Table renders normalized records back into the raw tabular contract
func Table(records []feed.IngredientRecord, schema feed.ColumnSchema) feed.RawTable {
	table := feed.RawTable{
		Headers: []string{
			schema.BatchCode, schema.FoodType, schema.PlannedKg, schema.RealizedKg,
			schema.PctDifference, schema.Operator, schema.DietName, schema.Date,
		},
		Rows: make([]feed.RawRow, 0, len(records)),
	}
	for _, r := range records {
		table.Rows = append(table.Rows, feed.RawRow{
			r.BatchCode,
			r.FoodType,
			formatFloat(r.PlannedKg),
			formatFloat(r.RealizedKg),
			formatFloat(r.PctDifference),
			r.Operator,
			r.DietName,
			r.Date.String(),
		})
	}
	return table
}

// Records builds a compact record list for table-driven tests:
// one entry per ingredient as {batch, foodType, planned, pct}.
func Records(rows ...[4]interface{}) []feed.IngredientRecord {
	out := make([]feed.IngredientRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, feed.IngredientRecord{
			BatchCode:     row[0].(string),
			FoodType:      row[1].(string),
			PlannedKg:     toFloat(row[2]),
			PctDifference: toFloat(row[3]),
			Date:          core.DayOf(2024, 5, 15),
		})
	}
	return out
}

func (g *BatchGenerator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	default:
		panic(fmt.Sprintf("testkit: unsupported numeric %T", v))
	}
}

// Clock is a fixed timestamp for tests that render generated-at lines
var Clock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
