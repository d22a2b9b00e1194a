package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mixaudit/adapters/excel"
	"mixaudit/adapters/render"
	"mixaudit/app"
	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
	"mixaudit/internal/config"
	"mixaudit/internal/logging"
	"mixaudit/internal/pipeline"
	"mixaudit/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mixaudit",
		Short: "Feed mixing deviation analytics",
		Long:  "Analyze wagon batch reports: weighted per-batch deviations, outlier bounds, histogram and statistics artifacts.",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newInspectCmd(),
		newInitConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// analyzeParams carries the fully resolved knobs for one CLI run, after
// config defaults have been merged with explicit flags.
type analyzeParams struct {
	inputPath      string
	outDir         string
	startStr       string
	endStr         string
	operators      []string
	foodTypes      []string
	dietNames      []string
	weightArgs     []string
	threshold      float64
	bucketStep     float64
	mode           string
	removeOutliers bool
}

func newAnalyzeCmd() *cobra.Command {
	var (
		cfgFile        string
		outDir         string
		startStr       string
		endStr         string
		operators      []string
		foodTypes      []string
		dietNames      []string
		weightArgs     []string
		threshold      float64
		bucketStep     float64
		mode           string
		removeOutliers bool
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [input-file]",
		Short: "Run a deviation analysis over a batch report and write the artifacts",
		Long: `Run the full analysis over an .xlsx or .csv batch report: normalize the
rows, filter by period and lists, aggregate weighted deviations per
batch, compute the outlier bounds and write the statistics, workbook,
histogram and report artifacts to the output directory.

Example:
  mixaudit analyze batidas.xlsx --start 2024-05-01 --end 2024-05-31 --weight "Milho=0.8" --remove-outliers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Init(verbose || cfg.Logs.Verbose, cfg.Logs.Dir)

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Analysis.ToleranceThreshold
			}
			if !cmd.Flags().Changed("bucket-step") {
				bucketStep = cfg.Analysis.BucketStep
			}
			if !cmd.Flags().Changed("exclusion-mode") {
				mode = cfg.Analysis.ExclusionMode
			}
			if !cmd.Flags().Changed("remove-outliers") {
				removeOutliers = cfg.Analysis.RemoveOutliers
			}

			return runAnalyze(cmd.Context(), cfg, analyzeParams{
				inputPath:      args[0],
				outDir:         outDir,
				startStr:       startStr,
				endStr:         endStr,
				operators:      operators,
				foodTypes:      foodTypes,
				dietNames:      dietNames,
				weightArgs:     weightArgs,
				threshold:      threshold,
				bucketStep:     bucketStep,
				mode:           mode,
				removeOutliers: removeOutliers,
			})
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "Path to an analysis profile (yaml)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory the artifacts are written to")
	cmd.Flags().StringVar(&startStr, "start", "", "Period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "Period end (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&operators, "operator", nil, "Keep only these operators (repeatable)")
	cmd.Flags().StringSliceVar(&foodTypes, "food-type", nil, "Keep only these food types (repeatable)")
	cmd.Flags().StringSliceVar(&dietNames, "diet", nil, "Keep only these diets (repeatable)")
	cmd.Flags().StringSliceVar(&weightArgs, "weight", nil, `Relative weight as "food type=0.5" (repeatable)`)
	cmd.Flags().Float64Var(&threshold, "threshold", 3.0, "Tolerance threshold in percent")
	cmd.Flags().Float64Var(&bucketStep, "bucket-step", 2.0, "Statistics bucket width in percent")
	cmd.Flags().StringVar(&mode, "exclusion-mode", "above", "Outlier fence: above or both")
	cmd.Flags().BoolVar(&removeOutliers, "remove-outliers", false, "Drop outlier batches before the histogram")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Debug logging")

	return cmd
}

func runAnalyze(ctx context.Context, cfg *config.Config, params analyzeParams) error {
	filter, err := buildFilter(params)
	if err != nil {
		return err
	}
	weights, err := parseWeights(params.weightArgs)
	if err != nil {
		return err
	}

	exclusionMode := analysis.ExclusionMode(params.mode)
	if !exclusionMode.Valid() {
		return fmt.Errorf("invalid exclusion mode %q: must be %q or %q", params.mode, analysis.ExcludeAbove, analysis.ExcludeBoth)
	}

	table, err := excel.NewReader(params.inputPath, readOptions(cfg)).Load(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", params.inputPath, err)
	}

	service := app.NewAnalysisService(cfg.Analysis.MaxConcurrentRuns)
	result, err := service.Run(ctx, app.AnalysisRequest{
		Table:          table,
		Schema:         cfg.Columns,
		Filter:         filter,
		Weights:        weights,
		Threshold:      params.threshold,
		BucketStep:     params.bucketStep,
		Mode:           exclusionMode,
		RemoveOutliers: params.removeOutliers,
	})
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(ctx, cfg, result, params.outDir)
	if err != nil {
		return err
	}

	printResult(result, paths)
	return nil
}

// writeArtifacts renders every exporter concurrently and writes each
// artifact under outDir as mixaudit-<name>.<ext>.
func writeArtifacts(ctx context.Context, cfg *config.Config, result *analysis.AnalysisResult, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Analysis.Timezone)
	if err != nil {
		loc = time.UTC
	}
	exporters := []ports.Exporter{
		render.NewStatsExporter(),
		excel.NewWorkbookExporter(),
		render.NewHistogramExporter(render.HistogramOptions{Location: loc}),
		app.NewReportBuilder(loc),
	}

	paths := make([]string, len(exporters))
	g, _ := errgroup.WithContext(ctx)
	for i, exp := range exporters {
		i, exp := i, exp
		g.Go(func() error {
			data, err := exp.Render(result)
			if err != nil {
				return fmt.Errorf("render %s: %w", exp.Name(), err)
			}
			path := filepath.Join(outDir, fmt.Sprintf("mixaudit-%s.%s", exp.Name(), exp.Extension()))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", exp.Name(), err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func printResult(result *analysis.AnalysisResult, paths []string) {
	fmt.Printf("\n=== ANALYSIS ===\n")
	fmt.Printf("Run: %s\n", result.RunID)
	fmt.Printf("Rows in: %d | used: %d | batches: %d\n", result.RecordsIn, result.RecordsUsed, result.Summary.CountWith)
	fmt.Printf("Mean deviation: %.2f%% | median: %.2f%%\n", result.Summary.MeanWith, result.Summary.MedianWith)
	if result.OutliersCut {
		fmt.Printf("Outliers removed: %d (Q1=%.2f Q3=%.2f upper=%.2f)\n",
			len(result.ExcludedPcts), result.Bounds.Q1, result.Bounds.Q3, result.Bounds.UpperBound)
		fmt.Printf("Without outliers: %d batches, mean %.2f%%, median %.2f%%\n",
			result.Summary.CountWithout, result.Summary.MeanWithout, result.Summary.MedianWithout)
	}
	for _, w := range result.Diagnostics.Warnings {
		fmt.Printf("Warning [%s]: %s\n", w.Code, w.Message)
	}

	fmt.Printf("\n=== ARTIFACTS ===\n")
	for _, p := range paths {
		fmt.Printf("%s\n", p)
	}
}

func newInspectCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "inspect [input-file]",
		Short: "Show the operators, food types, diets and date span of a batch report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			table, err := excel.NewReader(args[0], readOptions(cfg)).Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			records, report, err := pipeline.Normalize(table, cfg.Columns)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== %s ===\n", filepath.Base(args[0]))
			fmt.Printf("Rows: %d in, %d usable, %d dropped\n", report.RowsIn, len(records), report.DroppedRows)
			if start, end, ok := feed.DateSpan(records); ok {
				fmt.Printf("Period: %s to %s\n", start, end)
			}
			printList("Operators", feed.DistinctOperators(records))
			printList("Food types", feed.DistinctFoodTypes(records))
			printList("Diets", feed.DistinctDietNames(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "Path to an analysis profile (yaml)")
	return cmd
}

func printList(label string, values []string) {
	fmt.Printf("%s (%d):\n", label, len(values))
	for _, v := range values {
		fmt.Printf("  %s\n", v)
	}
}

func newInitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default analysis profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "mixaudit.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func buildFilter(params analyzeParams) (feed.FilterParams, error) {
	var filter feed.FilterParams

	if params.startStr != "" {
		t, err := time.Parse("2006-01-02", params.startStr)
		if err != nil {
			return filter, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", params.startStr)
		}
		filter.Start = core.NewDay(t)
	}
	if params.endStr != "" {
		t, err := time.Parse("2006-01-02", params.endStr)
		if err != nil {
			return filter, fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", params.endStr)
		}
		filter.End = core.NewDay(t)
	}
	filter.Operators = params.operators
	filter.FoodTypes = params.foodTypes
	filter.DietNames = params.dietNames
	return filter, nil
}

// parseWeights turns repeated --weight "food type=0.5" pairs into a
// weight map. The food type may itself contain "=" only in the value
// position, so the split is on the last separator.
func parseWeights(args []string) (feed.RelativeWeightMap, error) {
	if len(args) == 0 {
		return nil, nil
	}
	weights := make(feed.RelativeWeightMap, len(args))
	for _, arg := range args {
		idx := strings.LastIndex(arg, "=")
		if idx <= 0 || idx == len(arg)-1 {
			return nil, fmt.Errorf("invalid --weight %q: expected \"food type=0.5\"", arg)
		}
		name := strings.TrimSpace(arg[:idx])
		value, err := strconv.ParseFloat(strings.TrimSpace(arg[idx+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --weight %q: %q is not a number", arg, arg[idx+1:])
		}
		weights[name] = value
	}
	return weights, nil
}

func readOptions(cfg *config.Config) excel.ReadOptions {
	return excel.ReadOptions{
		SheetName:         cfg.Ingest.SheetName,
		SkipRows:          cfg.Ingest.SkipRows,
		RemoveFirstColumn: cfg.Ingest.RemoveFirstColumn,
		ColumnsToRemove:   cfg.Ingest.ColumnsToRemove,
	}
}
