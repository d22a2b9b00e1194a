package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/domain/core"
)

func sampleRecord() IngredientRecord {
	return IngredientRecord{
		BatchCode: "B1",
		FoodType:  "silage",
		Operator:  "maria",
		DietName:  "finishing",
		Date:      core.DayOf(2024, 5, 15),
	}
}

func TestFilterMatchesInclusiveDateRange(t *testing.T) {
	r := sampleRecord()

	onStart := FilterParams{Start: core.DayOf(2024, 5, 15), End: core.DayOf(2024, 5, 20)}
	onEnd := FilterParams{Start: core.DayOf(2024, 5, 10), End: core.DayOf(2024, 5, 15)}
	outside := FilterParams{Start: core.DayOf(2024, 5, 16), End: core.DayOf(2024, 5, 20)}

	assert.True(t, onStart.Matches(r))
	assert.True(t, onEnd.Matches(r))
	assert.False(t, outside.Matches(r))
}

func TestFilterOpenEndedRange(t *testing.T) {
	r := sampleRecord()

	assert.True(t, FilterParams{Start: core.DayOf(2024, 5, 1)}.Matches(r))
	assert.False(t, FilterParams{Start: core.DayOf(2024, 6, 1)}.Matches(r))
	assert.True(t, FilterParams{End: core.DayOf(2024, 5, 31)}.Matches(r))
	assert.False(t, FilterParams{End: core.DayOf(2024, 5, 1)}.Matches(r))
}

func TestFilterSentinelMeansNoRestriction(t *testing.T) {
	r := sampleRecord()

	assert.True(t, FilterParams{}.Matches(r))
	assert.True(t, FilterParams{Operators: []string{SelectAll}}.Matches(r))
	assert.True(t, FilterParams{Operators: []string{SelectAll, "someone-else"}}.Matches(r))
	assert.True(t, FilterParams{FoodTypes: []string{}}.Matches(r))
}

func TestFilterAndAcrossDimensionsOrWithin(t *testing.T) {
	r := sampleRecord()

	// OR within a dimension
	assert.True(t, FilterParams{Operators: []string{"joao", "maria"}}.Matches(r))
	assert.False(t, FilterParams{Operators: []string{"joao", "ana"}}.Matches(r))

	// AND across dimensions
	both := FilterParams{Operators: []string{"maria"}, DietNames: []string{"growing"}}
	assert.False(t, both.Matches(r))
	both.DietNames = []string{"finishing"}
	assert.True(t, both.Matches(r))
}

func TestFilterValidateRejectsInvertedRange(t *testing.T) {
	p := FilterParams{Start: core.DayOf(2024, 6, 1), End: core.DayOf(2024, 5, 1)}
	require.ErrorIs(t, p.Validate(), core.ErrInvalidRange)

	require.NoError(t, FilterParams{}.Validate())
	require.NoError(t, FilterParams{Start: core.DayOf(2024, 5, 1), End: core.DayOf(2024, 5, 1)}.Validate())
}

func TestUnrestricted(t *testing.T) {
	assert.True(t, Unrestricted(nil))
	assert.True(t, Unrestricted([]string{}))
	assert.True(t, Unrestricted([]string{"x", SelectAll}))
	assert.False(t, Unrestricted([]string{"x", "y"}))
}
