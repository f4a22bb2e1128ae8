package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
	"github.com/urban-analytics/sppt-cli/internal/inspect"
)

var (
	describeInput string
	describeCols  []string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize count columns before running the test",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := geoio.Load(describeInput)
		if err != nil {
			return err
		}

		summaries, err := inspect.Describe(ds.Table, describeCols)
		if err != nil {
			return err
		}

		inspect.WriteReport(os.Stdout, summaries)
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeInput, "input", "", "input dataset (.shp, .csv, or .xlsx) (required)")
	describeCmd.Flags().StringSliceVar(&describeCols, "count-cols", nil, "count columns to summarize (required)")
	_ = describeCmd.MarkFlagRequired("input")
	_ = describeCmd.MarkFlagRequired("count-cols")
	rootCmd.AddCommand(describeCmd)
}
