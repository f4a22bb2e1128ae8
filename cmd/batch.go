package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urban-analytics/sppt-cli/internal/manifest"
)

var (
	batchManifest    string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run every job in a YAML manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := manifest.Load(batchManifest)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentJobs
		}

		zap.L().Info("batch starting",
			zap.String("manifest", batchManifest),
			zap.Int("jobs", len(m.Jobs)),
			zap.Int("concurrency", concurrency),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		type jobResult struct {
			name string
			err  error
		}
		results := make([]jobResult, len(m.Jobs))

		for i, job := range m.Jobs {
			g.Go(func() error {
				_, err := executeJob(gctx, st, jobToSpec(job))
				results[i] = jobResult{name: job.Name, err: err}
				if err != nil {
					zap.L().Error("batch job failed",
						zap.String("job", job.Name),
						zap.Error(err),
					)
				}
				// One bad dataset must not cancel its siblings.
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		for _, r := range results {
			if r.err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", r.name, r.err)
			}
		}
		if failed > 0 {
			return eris.Errorf("batch: %d of %d jobs failed", failed, len(m.Jobs))
		}

		zap.L().Info("batch complete", zap.Int("jobs", len(m.Jobs)))
		return nil
	},
}

func jobToSpec(job manifest.Job) jobSpec {
	return jobSpec{
		Name:           job.Name,
		Input:          job.Input,
		GroupCol:       job.GroupCol,
		CountCols:      job.CountCols,
		Prefixes:       job.Prefixes,
		B:              *job.B,
		Seed:           job.Seed,
		ConfLevel:      *job.ConfLevel,
		UsePercentages: *job.UsePercentages,
		CheckOverlap:   *job.CheckOverlap,
		FixBase:        job.FixBase,
		ExportFormat:   job.ExportFormat,
		ExportDir:      job.ExportDir,
		MapOut:         job.MapOut,
	}
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "path to the batch manifest YAML (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max jobs in flight (default from config)")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}
