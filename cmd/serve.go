package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/urban-analytics/sppt-cli/internal/model"
	"github.com/urban-analytics/sppt-cli/internal/sppt"
	"github.com/urban-analytics/sppt-cli/internal/store"
	"github.com/urban-analytics/sppt-cli/internal/table"
)

var servePort int

// testRequest is the POST /v1/sppt body. Counts arrive inline; the API
// does not read files on behalf of callers.
type testRequest struct {
	Groups    []any          `json:"groups"`
	Variables []testVariable `json:"variables"`

	B              int     `json:"b,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
	ConfLevel      float64 `json:"conf_level,omitempty"`
	UsePercentages *bool   `json:"use_percentages,omitempty"`
	CheckOverlap   *bool   `json:"check_overlap,omitempty"`
	FixBase        bool    `json:"fix_base,omitempty"`
}

type testVariable struct {
	Name   string `json:"name"`
	Counts []int  `json:"counts"`
}

type testResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Columns []string         `json:"columns"`
	Rows    map[string][]any `json:"rows"`
	Indices *model.RunResult `json:"indices,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the test over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /v1/sppt", func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			handleTest(w, r, st)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  time.Duration(cfg.Server.TimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func handleTest(w http.ResponseWriter, r *http.Request, st store.Store) {
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	opts, tbl, err := requestToRun(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	run, err := st.CreateRun(r.Context(), model.RunParams{
		Input:          "api",
		GroupCol:       opts.GroupCol,
		CountCols:      opts.CountCols,
		B:              opts.B,
		Seed:           opts.Seed,
		ConfLevel:      opts.ConfLevel,
		UsePercentages: opts.UsePercentages,
		CheckOverlap:   opts.CheckOverlap,
		FixBase:        opts.FixBase,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	started := time.Now()
	result, err := sppt.Run(tbl, opts)
	if err != nil {
		if failErr := st.FailRun(r.Context(), run.ID, err.Error()); failErr != nil {
			zap.L().Error("record run failure", zap.String("run_id", run.ID), zap.Error(failErr))
		}
		writeJSONError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res := runResult(&jobOutcome{Result: result, elapsed: time.Since(started)})
	if err := st.CompleteRun(r.Context(), run.ID, res); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	resp := testResponse{
		RunID:   run.ID,
		Columns: result.Table.Columns(),
		Rows:    tableRows(result.Table),
	}
	if result.HasIndices {
		resp.Indices = res
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func requestToRun(req testRequest) (sppt.Options, *table.Table, error) {
	if len(req.Groups) == 0 {
		return sppt.Options{}, nil, eris.New("groups are required")
	}
	if len(req.Variables) < 1 {
		return sppt.Options{}, nil, eris.New("at least one variable is required")
	}

	tbl := table.New()
	if err := tbl.SetColumn("group", req.Groups); err != nil {
		return sppt.Options{}, nil, err
	}

	opts := sppt.Options{
		GroupCol:       "group",
		B:              req.B,
		Seed:           req.Seed,
		ConfLevel:      req.ConfLevel,
		FixBase:        req.FixBase,
		UsePercentages: true,
		CheckOverlap:   true,
	}
	if opts.B == 0 {
		opts.B = cfg.Test.Replicates
	}
	if opts.ConfLevel == 0 {
		opts.ConfLevel = cfg.Test.ConfLevel
	}
	if req.UsePercentages != nil {
		opts.UsePercentages = *req.UsePercentages
	}
	if req.CheckOverlap != nil {
		opts.CheckOverlap = *req.CheckOverlap
	}

	for _, v := range req.Variables {
		if v.Name == "" {
			return sppt.Options{}, nil, eris.New("variable name is required")
		}
		if len(v.Counts) != len(req.Groups) {
			return sppt.Options{}, nil, eris.Errorf("variable %s has %d counts for %d groups", v.Name, len(v.Counts), len(req.Groups))
		}
		if err := tbl.SetInts(v.Name, v.Counts); err != nil {
			return sppt.Options{}, nil, err
		}
		opts.CountCols = append(opts.CountCols, v.Name)
	}

	return opts, tbl, nil
}

// tableRows flattens the table column-wise. NaN cells become null so
// the document stays valid JSON.
func tableRows(tbl *table.Table) map[string][]any {
	out := make(map[string][]any, len(tbl.Columns()))
	for _, col := range tbl.Columns() {
		vals, _ := tbl.Column(col)
		clean := make([]any, len(vals))
		for i, v := range vals {
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				continue
			}
			clean[i] = v
		}
		out[col] = clean
	}
	return out
}

func writeJSONError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
