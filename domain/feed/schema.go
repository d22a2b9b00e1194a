package feed

// ColumnSchema maps the logical record fields onto source column
// headers. The normalizer resolves it against a table exactly once;
// nothing downstream touches headers or positions again.
type ColumnSchema struct {
	BatchCode     string `json:"batch_code" yaml:"batch_code" mapstructure:"batch_code"`
	FoodType      string `json:"food_type" yaml:"food_type" mapstructure:"food_type"`
	PlannedKg     string `json:"planned_kg" yaml:"planned_kg" mapstructure:"planned_kg"`
	RealizedKg    string `json:"realized_kg" yaml:"realized_kg" mapstructure:"realized_kg"`
	PctDifference string `json:"pct_difference" yaml:"pct_difference" mapstructure:"pct_difference"`
	Operator      string `json:"operator" yaml:"operator" mapstructure:"operator"`
	DietName      string `json:"diet_name" yaml:"diet_name" mapstructure:"diet_name"`
	Date          string `json:"date" yaml:"date" mapstructure:"date"`
}

// DefaultColumnSchema returns the header names of the stock feed-mill
// export sheets. Deployments with different headers override these in
// the analysis profile.
func DefaultColumnSchema() ColumnSchema {
	return ColumnSchema{
		BatchCode:     "COD. BATIDA",
		FoodType:      "ALIMENTO",
		PlannedKg:     "PREVISTO (KG)",
		RealizedKg:    "REALIZADO (KG)",
		PctDifference: "DIFERENÇA (%)",
		Operator:      "OPERADOR",
		DietName:      "NOME",
		Date:          "DATA",
	}
}

// Required returns the logical field names paired with their source
// headers, in a fixed order. Every one of them must be present in the
// input table.
func (s ColumnSchema) Required() []ColumnBinding {
	return []ColumnBinding{
		{Field: "batch_code", Header: s.BatchCode},
		{Field: "food_type", Header: s.FoodType},
		{Field: "planned_kg", Header: s.PlannedKg},
		{Field: "realized_kg", Header: s.RealizedKg},
		{Field: "pct_difference", Header: s.PctDifference},
		{Field: "operator", Header: s.Operator},
		{Field: "diet_name", Header: s.DietName},
		{Field: "date", Header: s.Date},
	}
}

// ColumnBinding ties a logical field to its source header
type ColumnBinding struct {
	Field  string `json:"field"`
	Header string `json:"header"`
}
