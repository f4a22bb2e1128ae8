package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/urban-analytics/sppt-cli/internal/sppt"
)

var (
	runInput        string
	runGroupCol     string
	runCountCols    []string
	runPrefixes     []string
	runB            int
	runSeed         int64
	runConfLevel    float64
	runRaw          bool
	runNoOverlap    bool
	runFixBase      bool
	runExportFormat string
	runExportDir    string
	runMapOut       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the point pattern test on a single dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		spec := jobSpec{
			Name:           runInput,
			Input:          runInput,
			GroupCol:       runGroupCol,
			CountCols:      runCountCols,
			Prefixes:       runPrefixes,
			B:              runB,
			ConfLevel:      runConfLevel,
			UsePercentages: cfg.Test.UsePercentages && !runRaw,
			CheckOverlap:   cfg.Test.CheckOverlap && !runNoOverlap,
			FixBase:        runFixBase,
			ExportFormat:   runExportFormat,
			ExportDir:      runExportDir,
			MapOut:         runMapOut,
		}
		if spec.B == 0 {
			spec.B = cfg.Test.Replicates
		}
		if spec.ConfLevel == 0 {
			spec.ConfLevel = cfg.Test.ConfLevel
		}
		if cmd.Flags().Changed("seed") {
			seed := runSeed
			spec.Seed = &seed
		}
		if spec.ExportFormat == "" {
			spec.ExportFormat = cfg.Export.Format
		}
		if spec.ExportDir == "" {
			spec.ExportDir = cfg.Export.Dir
		}

		outcome, err := executeJob(ctx, st, spec)
		if err != nil {
			return err
		}

		if outcome.Result.HasIndices {
			sppt.WriteSummary(os.Stdout, outcome.Result.Indices, spec.FixBase, spec.UsePercentages)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "input dataset (.shp, .csv, or .xlsx) (required)")
	runCmd.Flags().StringVar(&runGroupCol, "group-col", "", "column identifying each areal unit (required)")
	runCmd.Flags().StringSliceVar(&runCountCols, "count-cols", nil, "count columns to compare (required)")
	runCmd.Flags().StringSliceVar(&runPrefixes, "prefixes", nil, "output column prefixes (default: count column names)")
	runCmd.Flags().IntVar(&runB, "b", 0, "bootstrap replicates (default from config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "RNG seed for reproducible intervals")
	runCmd.Flags().Float64Var(&runConfLevel, "conf-level", 0, "confidence level in (0,1) (default from config)")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "compare raw counts instead of percentages")
	runCmd.Flags().BoolVar(&runNoOverlap, "no-overlap", false, "skip interval overlap evaluation and indices")
	runCmd.Flags().BoolVar(&runFixBase, "fix-base", false, "treat the first count column as fixed ground truth")
	runCmd.Flags().StringVar(&runExportFormat, "export-format", "", "output format: csv, txt, xlsx, shp, sqlite (default from config)")
	runCmd.Flags().StringVar(&runExportDir, "export-dir", "", "output directory (default from config)")
	runCmd.Flags().StringVar(&runMapOut, "map", "", "write an SVG choropleth of the signed index to this path")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("group-col")
	_ = runCmd.MarkFlagRequired("count-cols")
	rootCmd.AddCommand(runCmd)
}
