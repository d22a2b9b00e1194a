package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

// NormalizeReport accounts for every input row: RowsIn == RowsOut +
// total drops. DroppedByField says which field killed each dropped row
// (first failing field wins).
type NormalizeReport struct {
	RowsIn         int            `json:"rows_in"`
	RowsOut        int            `json:"rows_out"`
	DroppedRows    int            `json:"dropped_rows"`
	DroppedByField map[string]int `json:"dropped_by_field,omitempty"`
}

// dateLayouts are tried in order when parsing the date column.
// Source sheets arrive either ISO-formatted or in the Brazilian
// day-first form, with or without a time component.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"01-02-06",
}

// Normalize validates and coerces raw tabular rows into typed records.
// The column schema is resolved against the headers exactly once here;
// downstream stages never see headers or positions. A missing required
// column fails the whole run with MissingColumnError. A row whose
// numeric or date cells cannot be coerced, or whose batch code is
// blank, is dropped and reported, never zero-filled.
func Normalize(table feed.RawTable, schema feed.ColumnSchema) ([]feed.IngredientRecord, NormalizeReport, error) {
	report := NormalizeReport{
		RowsIn:         len(table.Rows),
		DroppedByField: make(map[string]int),
	}

	idx := make(map[string]int)
	var missing []string
	for _, binding := range schema.Required() {
		i := table.ColumnIndex(binding.Header)
		if i < 0 {
			missing = append(missing, binding.Header)
			continue
		}
		idx[binding.Field] = i
	}
	if len(missing) > 0 {
		return nil, report, &analysis.MissingColumnError{Columns: missing}
	}

	records := make([]feed.IngredientRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec, badField := normalizeRow(row, idx)
		if badField != "" {
			report.DroppedRows++
			report.DroppedByField[badField]++
			continue
		}
		records = append(records, rec)
	}
	report.RowsOut = len(records)
	return records, report, nil
}

// normalizeRow coerces one row. On failure it returns the logical name
// of the first field that could not be coerced.
func normalizeRow(row feed.RawRow, idx map[string]int) (feed.IngredientRecord, string) {
	batchCode := strings.TrimSpace(cell(row, idx["batch_code"]))
	if batchCode == "" {
		return feed.IngredientRecord{}, "batch_code"
	}

	planned, err := ParseDecimal(cell(row, idx["planned_kg"]))
	if err != nil {
		return feed.IngredientRecord{}, "planned_kg"
	}
	realized, err := ParseDecimal(cell(row, idx["realized_kg"]))
	if err != nil {
		return feed.IngredientRecord{}, "realized_kg"
	}
	pct, err := ParseDecimal(cell(row, idx["pct_difference"]))
	if err != nil {
		return feed.IngredientRecord{}, "pct_difference"
	}
	date, err := ParseDay(cell(row, idx["date"]))
	if err != nil {
		return feed.IngredientRecord{}, "date"
	}

	return feed.IngredientRecord{
		BatchCode:     batchCode,
		FoodType:      strings.TrimSpace(cell(row, idx["food_type"])),
		PlannedKg:     planned,
		RealizedKg:    realized,
		PctDifference: pct,
		Operator:      strings.TrimSpace(cell(row, idx["operator"])),
		DietName:      strings.TrimSpace(cell(row, idx["diet_name"])),
		Date:          date,
	}, ""
}

// cell reads a column defensively: short rows read as empty cells
func cell(row feed.RawRow, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseDecimal coerces a numeric cell. Brazilian sources write decimal
// commas and dot thousand separators, so when both separators appear
// the rightmost one is taken as the decimal mark. NaN and infinities
// are rejected: every coerced value is finite.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	s = strings.ReplaceAll(s, " ", "")

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		// 1234,56
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// ParseDay coerces a date cell, trying each supported layout in order
func ParseDay(s string) (core.Day, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return core.NewDay(t), nil
		}
		lastErr = err
	}
	return core.Day{}, lastErr
}
