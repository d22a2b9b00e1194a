package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"mixaudit/domain/analysis"
	"mixaudit/internal/errors"
)

// Conditional fill colors for the weighted deviation column
const (
	fillOK        = "C6EFCE"
	fillLight     = "FFC7CE"
	fillIntense   = "FF4B4B"
	fillExtreme   = "000000"
	fontOnExtreme = "FFFFFF"
)

const sheetName = "Processed Batches"

// WorkbookExporter renders the per-batch aggregates as a styled
// workbook. The deviation column is number-formatted 0.00 and filled
// by how far each batch sits past the tolerance threshold: at or
// under it, within one bucket step, within two, or beyond.
type WorkbookExporter struct{}

// NewWorkbookExporter creates the workbook exporter
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

func (e *WorkbookExporter) Name() string { return "processed-batches" }

func (e *WorkbookExporter) Extension() string { return "xlsx" }

// Render serializes the aggregates into workbook bytes
func (e *WorkbookExporter) Render(result *analysis.AnalysisResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, errors.RenderError("rename sheet", err)
	}

	header := []interface{}{"Batch Code", "Weighted Avg (%)", "Date", "Operator", "Diet"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, errors.RenderError("write header", err)
	}

	styles, err := deviationStyles(f)
	if err != nil {
		return nil, err
	}

	threshold := result.Threshold
	step := result.BucketStep
	for i, agg := range result.Aggregates {
		rowNum := i + 2
		row := []interface{}{agg.BatchCode, agg.WeightedAvgPct, agg.Date.String(), agg.Operator, agg.DietName}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, errors.RenderError("cell name", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, errors.RenderError(fmt.Sprintf("write row %d", rowNum), err)
		}

		valueCell, err := excelize.CoordinatesToCellName(2, rowNum)
		if err != nil {
			return nil, errors.RenderError("cell name", err)
		}
		style := styles.pick(agg.WeightedAvgPct, threshold, step)
		if err := f.SetCellStyle(sheetName, valueCell, valueCell, style); err != nil {
			return nil, errors.RenderError("style cell", err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "E", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.RenderError("serialize workbook", err)
	}
	return buf.Bytes(), nil
}

// styleSet holds the four conditional styles
type styleSet struct {
	ok      int
	light   int
	intense int
	extreme int
}

func (s styleSet) pick(v, threshold, step float64) int {
	switch {
	case v <= threshold:
		return s.ok
	case v <= threshold+step:
		return s.light
	case v <= threshold+2*step:
		return s.intense
	default:
		return s.extreme
	}
}

func deviationStyles(f *excelize.File) (styleSet, error) {
	numFmt := "0.00"
	newFill := func(color string, font *excelize.Font) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill:         excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Font:         font,
			CustomNumFmt: &numFmt,
		})
	}

	var set styleSet
	var err error
	if set.ok, err = newFill(fillOK, nil); err != nil {
		return set, errors.RenderError("build style", err)
	}
	if set.light, err = newFill(fillLight, nil); err != nil {
		return set, errors.RenderError("build style", err)
	}
	if set.intense, err = newFill(fillIntense, nil); err != nil {
		return set, errors.RenderError("build style", err)
	}
	if set.extreme, err = newFill(fillExtreme, &excelize.Font{Color: fontOnExtreme}); err != nil {
		return set, errors.RenderError("build style", err)
	}
	return set, nil
}
