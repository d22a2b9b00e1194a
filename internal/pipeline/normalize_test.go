package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

// testTable builds a table under the default schema headers
func testTable(rows ...feed.RawRow) feed.RawTable {
	s := feed.DefaultColumnSchema()
	return feed.RawTable{
		Headers: []string{s.BatchCode, s.FoodType, s.PlannedKg, s.RealizedKg, s.PctDifference, s.Operator, s.DietName, s.Date},
		Rows:    rows,
	}
}

func TestNormalizeHappyPath(t *testing.T) {
	table := testTable(
		feed.RawRow{"B1", "corn", "100", "104", "4", "maria", "finishing", "2024-05-15"},
		feed.RawRow{"B1", "mineral", "50", "49", "-2", "maria", "finishing", "15/05/2024"},
	)

	records, report, err := Normalize(table, feed.DefaultColumnSchema())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "B1", records[0].BatchCode)
	assert.Equal(t, "corn", records[0].FoodType)
	assert.Equal(t, 100.0, records[0].PlannedKg)
	assert.Equal(t, 104.0, records[0].RealizedKg)
	assert.Equal(t, 4.0, records[0].PctDifference)
	assert.Equal(t, core.DayOf(2024, 5, 15), records[0].Date)
	// Both date layouts land on the same day
	assert.Equal(t, records[0].Date, records[1].Date)

	assert.Equal(t, 2, report.RowsIn)
	assert.Equal(t, 2, report.RowsOut)
	assert.Equal(t, 0, report.DroppedRows)
}

func TestNormalizeMissingColumnIsFatal(t *testing.T) {
	s := feed.DefaultColumnSchema()
	table := feed.RawTable{
		Headers: []string{s.BatchCode, s.FoodType, s.PlannedKg}, // no realized, pct, operator, diet, date
		Rows:    []feed.RawRow{{"B1", "corn", "100"}},
	}

	_, _, err := Normalize(table, s)
	require.Error(t, err)

	var missingErr *analysis.MissingColumnError
	require.ErrorAs(t, err, &missingErr)
	assert.Contains(t, missingErr.Columns, s.RealizedKg)
	assert.Contains(t, missingErr.Columns, s.Date)
	assert.Contains(t, err.Error(), s.RealizedKg)
}

func TestNormalizeDropsUncoercibleRows(t *testing.T) {
	table := testTable(
		feed.RawRow{"B1", "corn", "100", "104", "4", "maria", "d", "2024-05-15"},
		feed.RawRow{"B2", "corn", "oops", "104", "4", "maria", "d", "2024-05-15"},
		feed.RawRow{"B3", "corn", "100", "104", "not-a-number", "maria", "d", "2024-05-15"},
		feed.RawRow{"B4", "corn", "100", "104", "4", "maria", "d", "yesterday"},
		feed.RawRow{"", "corn", "100", "104", "4", "maria", "d", "2024-05-15"},
	)

	records, report, err := Normalize(table, feed.DefaultColumnSchema())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "B1", records[0].BatchCode)

	assert.Equal(t, 5, report.RowsIn)
	assert.Equal(t, 1, report.RowsOut)
	assert.Equal(t, 4, report.DroppedRows)
	assert.Equal(t, 1, report.DroppedByField["planned_kg"])
	assert.Equal(t, 1, report.DroppedByField["pct_difference"])
	assert.Equal(t, 1, report.DroppedByField["date"])
	assert.Equal(t, 1, report.DroppedByField["batch_code"])
}

func TestNormalizeRejectsNonFiniteNumbers(t *testing.T) {
	// strconv accepts "NaN" and "Inf"; the records must not
	table := testTable(
		feed.RawRow{"B1", "corn", "100", "104", "NaN", "maria", "d", "2024-05-15"},
		feed.RawRow{"B2", "corn", "Inf", "104", "4", "maria", "d", "2024-05-15"},
	)

	records, report, err := Normalize(table, feed.DefaultColumnSchema())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 2, report.DroppedRows)
}

func TestNormalizeShortRows(t *testing.T) {
	table := testTable(
		feed.RawRow{"B1", "corn"}, // truncated row reads as empty cells
	)

	records, report, err := Normalize(table, feed.DefaultColumnSchema())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, report.DroppedRows)
}

func TestNormalizeResolvesLastDuplicateHeader(t *testing.T) {
	s := feed.DefaultColumnSchema()
	// Export sheets repeat PREVISTO (KG); the rightmost one is data
	table := feed.RawTable{
		Headers: []string{s.BatchCode, s.FoodType, s.PlannedKg, s.PlannedKg, s.RealizedKg, s.PctDifference, s.Operator, s.DietName, s.Date},
		Rows: []feed.RawRow{
			{"B1", "corn", "999", "100", "104", "4", "maria", "d", "2024-05-15"},
		},
	}

	records, _, err := Normalize(table, s)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 100.0, records[0].PlannedKg)
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"3.5", 3.5, false},
		{"3,5", 3.5, false},
		{"1.234,56", 1234.56, false},
		{"1,234.56", 1234.56, false},
		{" 42 ", 42, false},
		{"-2,75", -2.75, false},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
	}
	for _, c := range cases {
		got, err := ParseDecimal(c.in)
		if c.wantErr {
			assert.Error(t, err, "input %q", c.in)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		assert.InDelta(t, c.want, got, 1e-12, "input %q", c.in)
	}
}

func TestParseDay(t *testing.T) {
	want := core.DayOf(2024, 5, 15)

	for _, in := range []string{"2024-05-15", "15/05/2024", "2024-05-15 08:30:00", "15/05/2024 08:30"} {
		got, err := ParseDay(in)
		require.NoError(t, err, "input %q", in)
		assert.True(t, got.Equal(want), "input %q parsed to %s", in, got)
	}

	_, err := ParseDay("32/13/2024")
	assert.Error(t, err)
}
