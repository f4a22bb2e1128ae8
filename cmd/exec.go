package main

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urban-analytics/sppt-cli/internal/export"
	"github.com/urban-analytics/sppt-cli/internal/geoio"
	"github.com/urban-analytics/sppt-cli/internal/model"
	"github.com/urban-analytics/sppt-cli/internal/render"
	"github.com/urban-analytics/sppt-cli/internal/sppt"
	"github.com/urban-analytics/sppt-cli/internal/store"
)

// jobSpec is one fully resolved analysis request. The run, batch, and
// serve commands all funnel through it.
type jobSpec struct {
	Name           string
	Input          string
	GroupCol       string
	CountCols      []string
	Prefixes       []string
	B              int
	Seed           *int64
	ConfLevel      float64
	UsePercentages bool
	CheckOverlap   bool
	FixBase        bool
	ExportFormat   string
	ExportDir      string
	MapOut         string
}

// jobOutcome reports what a finished job produced.
type jobOutcome struct {
	Result     *sppt.Result
	Run        *model.Run
	ExportPath string

	elapsed time.Duration
}

func (s jobSpec) runParams() model.RunParams {
	return model.RunParams{
		Input:          s.Input,
		GroupCol:       s.GroupCol,
		CountCols:      s.CountCols,
		B:              s.B,
		Seed:           s.Seed,
		ConfLevel:      s.ConfLevel,
		UsePercentages: s.UsePercentages,
		CheckOverlap:   s.CheckOverlap,
		FixBase:        s.FixBase,
	}
}

// executeJob loads the dataset, runs the test, exports results, and
// records the run in the registry. Registry writes are best-effort: a
// broken registry never invalidates a computed result.
func executeJob(ctx context.Context, st store.Store, spec jobSpec) (*jobOutcome, error) {
	var runID string
	run, err := st.CreateRun(ctx, spec.runParams())
	if err != nil {
		zap.L().Warn("record run", zap.String("job", spec.Name), zap.Error(err))
	} else {
		runID = run.ID
		if err := st.UpdateRunStatus(ctx, runID, model.RunStatusRunning); err != nil {
			zap.L().Warn("update run status", zap.String("run_id", runID), zap.Error(err))
		}
	}

	outcome, jobErr := runJob(spec)
	if jobErr != nil {
		if runID != "" {
			if failErr := st.FailRun(ctx, runID, jobErr.Error()); failErr != nil {
				zap.L().Warn("record run failure", zap.String("run_id", runID), zap.Error(failErr))
			}
		}
		return nil, jobErr
	}

	if runID != "" {
		if err := st.CompleteRun(ctx, runID, runResult(outcome)); err != nil {
			zap.L().Warn("record run result", zap.String("run_id", runID), zap.Error(err))
		} else if recorded, err := st.GetRun(ctx, runID); err == nil {
			outcome.Run = recorded
		}
	}
	return outcome, nil
}

func runJob(spec jobSpec) (*jobOutcome, error) {
	started := time.Now()

	ds, err := geoio.Load(spec.Input)
	if err != nil {
		return nil, err
	}

	result, err := sppt.Run(ds.Table, sppt.Options{
		GroupCol:       spec.GroupCol,
		CountCols:      spec.CountCols,
		Prefixes:       spec.Prefixes,
		B:              spec.B,
		Seed:           spec.Seed,
		ConfLevel:      spec.ConfLevel,
		CheckOverlap:   spec.CheckOverlap,
		FixBase:        spec.FixBase,
		UsePercentages: spec.UsePercentages,
	})
	if err != nil {
		return nil, err
	}

	outcome := &jobOutcome{Result: result}
	out := &geoio.Dataset{Table: result.Table, Geoms: ds.Geoms}

	// Output stages are best-effort: the computed result stands even when
	// an artifact cannot be written.
	if spec.ExportFormat != "" {
		path, err := export.Results(out, export.Options{
			Format: spec.ExportFormat,
			Dir:    spec.ExportDir,
			Vars:   spec.CountCols,
		})
		if err != nil {
			zap.L().Warn("export failed", zap.String("job", spec.Name), zap.Error(err))
		} else {
			outcome.ExportPath = path
			zap.L().Info("results exported",
				zap.String("job", spec.Name),
				zap.String("path", path),
			)
		}
	}

	if spec.MapOut != "" {
		if err := writeMap(out, spec); err != nil {
			zap.L().Warn("map render failed", zap.String("job", spec.Name), zap.Error(err))
		} else {
			zap.L().Info("map written",
				zap.String("job", spec.Name),
				zap.String("path", spec.MapOut),
			)
		}
	}

	zap.L().Info("test complete",
		zap.String("job", spec.Name),
		zap.String("input", spec.Input),
		zap.Int("b", spec.B),
		zap.Duration("elapsed", time.Since(started)),
	)

	outcome.elapsed = time.Since(started)
	return outcome, nil
}

func writeMap(out *geoio.Dataset, spec jobSpec) error {
	if len(spec.CountCols) != 2 {
		return eris.New("map output requires exactly two count columns")
	}
	return render.SaveBivariateMap(out, spec.MapOut, render.MapOptions{
		BaseName: spec.CountCols[0],
		TestName: spec.CountCols[1],
	})
}

func runResult(o *jobOutcome) *model.RunResult {
	res := &model.RunResult{DurationMS: o.elapsed.Milliseconds()}
	if o.Result.HasIndices {
		idx := o.Result.Indices
		res.SIndex = idx.SIndex
		res.TotalObs = idx.TotalObs
		res.OverlapObs = idx.OverlapObs
		res.NonZeroObs = idx.NonZeroObs
		if !math.IsNaN(idx.RobustSIndex) {
			robust := idx.RobustSIndex
			res.RobustSIndex = &robust
		}
	}
	return res
}
