package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

func filterFixture() []feed.IngredientRecord {
	return []feed.IngredientRecord{
		{BatchCode: "B1", FoodType: "corn", Operator: "maria", DietName: "finishing", Date: core.DayOf(2024, 5, 10)},
		{BatchCode: "B2", FoodType: "silage", Operator: "joao", DietName: "growing", Date: core.DayOf(2024, 5, 12)},
		{BatchCode: "B3", FoodType: "corn", Operator: "maria", DietName: "growing", Date: core.DayOf(2024, 5, 20)},
		{BatchCode: "B4", FoodType: "mineral", Operator: "ana", DietName: "finishing", Date: core.DayOf(2024, 6, 1)},
	}
}

func TestFilterByDateRangeInclusive(t *testing.T) {
	params := feed.FilterParams{
		Start: core.DayOf(2024, 5, 10),
		End:   core.DayOf(2024, 5, 20),
	}

	got := Filter(filterFixture(), params)

	require.Len(t, got, 3)
	assert.Equal(t, "B1", got[0].BatchCode)
	assert.Equal(t, "B3", got[2].BatchCode)
}

func TestFilterCombinesDimensions(t *testing.T) {
	params := feed.FilterParams{
		Operators: []string{"maria"},
		DietNames: []string{"growing"},
	}

	got := Filter(filterFixture(), params)

	require.Len(t, got, 1)
	assert.Equal(t, "B3", got[0].BatchCode)
}

func TestFilterSentinelImposesNoRestriction(t *testing.T) {
	params := feed.FilterParams{
		Operators: []string{feed.SelectAll},
		FoodTypes: []string{feed.SelectAll},
		DietNames: []string{feed.SelectAll},
	}

	got := Filter(filterFixture(), params)
	assert.Len(t, got, len(filterFixture()))
}

func TestFilterIdempotent(t *testing.T) {
	params := feed.FilterParams{
		Start:     core.DayOf(2024, 5, 1),
		End:       core.DayOf(2024, 5, 31),
		Operators: []string{"maria", "joao"},
	}

	once := Filter(filterFixture(), params)
	twice := Filter(once, params)

	assert.Equal(t, once, twice)
}

func TestFilterEmptyResultIsNormal(t *testing.T) {
	params := feed.FilterParams{Operators: []string{"nobody"}}

	got := Filter(filterFixture(), params)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	records := filterFixture()
	_ = Filter(records, feed.FilterParams{Operators: []string{"maria"}})
	assert.Equal(t, filterFixture(), records)
}
