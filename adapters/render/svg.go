package render

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"mixaudit/domain/analysis"
)

const (
	svgWidth  = 860
	svgHeight = 560

	plotLeft   = 70.0
	plotRight  = 820.0
	plotTop    = 64.0
	plotBottom = 430.0
)

// HistogramOptions carries the presentation knobs the profile controls:
// labels and the timezone the footer timestamps are rendered in.
type HistogramOptions struct {
	Title    string
	XLabel   string
	YLabel   string
	Location *time.Location
}

// HistogramExporter draws the deviation histogram as a standalone SVG:
// one bar per bin, tolerance marker, and a footer with the period, the
// batch total and the generation timestamp.
type HistogramExporter struct {
	opts HistogramOptions
}

// NewHistogramExporter creates the SVG exporter
func NewHistogramExporter(opts HistogramOptions) *HistogramExporter {
	if opts.Title == "" {
		opts.Title = "Weighted average deviation per batch"
	}
	if opts.XLabel == "" {
		opts.XLabel = "weighted deviation (%)"
	}
	if opts.YLabel == "" {
		opts.YLabel = "batches"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &HistogramExporter{opts: opts}
}

func (e *HistogramExporter) Name() string { return "histogram" }

func (e *HistogramExporter) Extension() string { return "svg" }

// Render draws the histogram into SVG bytes
func (e *HistogramExporter) Render(result *analysis.AnalysisResult) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`, svgWidth, svgHeight))
	sb.WriteString("\n")
	sb.WriteString(`<style>
    .title { font-family: Arial, sans-serif; font-size: 18px; fill: #111; }
    .label { font-family: Arial, sans-serif; font-size: 13px; fill: #333; }
    .tick { font-family: Arial, sans-serif; font-size: 11px; fill: #333; }
    .footer { font-family: Arial, sans-serif; font-size: 12px; fill: #555; }
    .axis { stroke: #333; stroke-width: 1; }
    .grid { stroke: #ccc; stroke-width: 0.5; stroke-dasharray: 4 3; }
    .bar { stroke: black; stroke-width: 1; }
    .tolerance { stroke: #1f2937; stroke-width: 1.5; stroke-dasharray: 6 4; }
  </style>
`)
	sb.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf(`  <text class="title" x="%d" y="34" text-anchor="middle">%s</text>`,
		svgWidth/2, html.EscapeString(e.opts.Title)))
	sb.WriteString("\n")

	bins := result.Histogram.Bins
	if len(bins) == 0 {
		sb.WriteString(fmt.Sprintf(`  <text class="label" x="%d" y="%d" text-anchor="middle">no batches in the selected period</text>`,
			svgWidth/2, int((plotTop+plotBottom)/2)))
		sb.WriteString("\n")
	} else {
		e.drawPlot(&sb, result)
	}

	e.drawFooter(&sb, result)
	sb.WriteString("</svg>")
	return []byte(sb.String()), nil
}

func (e *HistogramExporter) drawPlot(sb *strings.Builder, result *analysis.AnalysisResult) {
	bins := result.Histogram.Bins
	minEdge := bins[0].LowerEdge
	maxEdge := bins[len(bins)-1].UpperEdge

	maxCount := 1
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	sx := func(v float64) float64 {
		return plotLeft + (v-minEdge)/(maxEdge-minEdge)*(plotRight-plotLeft)
	}
	sy := func(count int) float64 {
		return plotBottom - float64(count)/float64(maxCount)*(plotBottom-plotTop)
	}

	// Horizontal gridlines with count labels.
	for _, tick := range countTicks(maxCount) {
		y := sy(tick)
		fmt.Fprintf(sb, `  <line class="grid" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			plotLeft, y, plotRight, y)
		fmt.Fprintf(sb, `  <text class="tick" x="%.1f" y="%.1f" text-anchor="end">%d</text>`+"\n",
			plotLeft-8, y+4, tick)
	}

	for _, b := range bins {
		x := sx(b.LowerEdge)
		w := sx(b.UpperEdge) - x
		y := sy(b.Count)
		fill := "#00ff00"
		if b.ColorClass == analysis.ColorAboveTolerance {
			fill = "#ff0000"
		}
		fmt.Fprintf(sb, `  <rect class="bar" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="%.2f"/>`+"\n",
			x, y, w, plotBottom-y, fill, b.Intensity)
	}

	// Axes on top of the bars.
	fmt.Fprintf(sb, `  <line class="axis" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
		plotLeft, plotTop, plotLeft, plotBottom)
	fmt.Fprintf(sb, `  <line class="axis" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
		plotLeft, plotBottom, plotRight, plotBottom)

	for _, tick := range valueTicks(minEdge, maxEdge) {
		x := sx(tick)
		fmt.Fprintf(sb, `  <line class="axis" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			x, plotBottom, x, plotBottom+5)
		fmt.Fprintf(sb, `  <text class="tick" x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n",
			x, plotBottom+18, trimFloat(tick))
	}

	threshold := result.Histogram.Threshold
	if threshold >= minEdge && threshold <= maxEdge {
		x := sx(threshold)
		fmt.Fprintf(sb, `  <line class="tolerance" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			x, plotTop, x, plotBottom)
		fmt.Fprintf(sb, `  <text class="tick" x="%.1f" y="%.1f">tolerance (%s%%)</text>`+"\n",
			x+6, plotTop+12, trimFloat(threshold))
	}

	fmt.Fprintf(sb, `  <text class="label" x="%d" y="%.1f" text-anchor="middle">%s</text>`+"\n",
		(int(plotLeft)+int(plotRight))/2, plotBottom+44, html.EscapeString(e.opts.XLabel))
	fmt.Fprintf(sb, `  <text class="label" x="20" y="%.1f" text-anchor="middle" transform="rotate(-90 20 %.1f)">%s</text>`+"\n",
		(plotTop+plotBottom)/2, (plotTop+plotBottom)/2, html.EscapeString(e.opts.YLabel))
}

func (e *HistogramExporter) drawFooter(sb *strings.Builder, result *analysis.AnalysisResult) {
	start, end := "...", "..."
	if !result.PeriodStart.IsZero() {
		start = result.PeriodStart.Time().Format("02/01/2006")
	}
	if !result.PeriodEnd.IsZero() {
		end = result.PeriodEnd.Time().Format("02/01/2006")
	}
	generated := result.GeneratedAt.Time().In(e.opts.Location).Format("02/01/2006 15:04")

	lines := []string{
		fmt.Sprintf("Period: %s to %s", start, end),
		fmt.Sprintf("Total batches: %d", result.Histogram.TotalCount()),
		fmt.Sprintf("Generated: %s", generated),
	}
	y := svgHeight - 58
	for _, line := range lines {
		fmt.Fprintf(sb, `  <text class="footer" x="%.1f" y="%d">%s</text>`+"\n",
			plotLeft, y, html.EscapeString(line))
		y += 18
	}
}

// countTicks returns integer y-axis ticks at a 1/2/5 ladder step.
func countTicks(maxCount int) []int {
	step := niceStep(float64(maxCount) / 5)
	if step < 1 {
		step = 1
	}
	var ticks []int
	for v := int(step); v <= maxCount; v += int(step) {
		ticks = append(ticks, v)
	}
	return ticks
}

// valueTicks returns x-axis ticks covering [min, max] at a 1/2/5 ladder
// step, pruned to the plotted range.
func valueTicks(min, max float64) []float64 {
	step := niceStep((max - min) / 12)
	if step <= 0 {
		return []float64{min}
	}
	var ticks []float64
	for v := math.Ceil(min/step) * step; v <= max+step/1e6; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// niceStep rounds a raw interval up to the nearest 1, 2 or 5 times a
// power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch {
	case raw/mag <= 1:
		return mag
	case raw/mag <= 2:
		return 2 * mag
	case raw/mag <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
