// Package model holds the persisted shapes of the run registry.
package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the inputs of an analysis run so that a result can
// be reproduced later.
type RunParams struct {
	Input          string   `json:"input"`
	GroupCol       string   `json:"group_col"`
	CountCols      []string `json:"count_cols"`
	B              int      `json:"b"`
	Seed           *int64   `json:"seed,omitempty"`
	ConfLevel      float64  `json:"conf_level"`
	UsePercentages bool     `json:"use_percentages"`
	CheckOverlap   bool     `json:"check_overlap"`
	FixBase        bool     `json:"fix_base"`
}

// RunResult holds the aggregate outcome of a completed run. The robust
// index is a pointer because it is undefined when every compared group
// is empty.
type RunResult struct {
	SIndex       float64  `json:"s_index"`
	RobustSIndex *float64 `json:"robust_s_index,omitempty"`
	TotalObs     int      `json:"total_obs"`
	OverlapObs   int      `json:"overlap_obs"`
	NonZeroObs   int      `json:"non_zero_obs"`
	DurationMS   int64    `json:"duration_ms"`
}

// Run is one recorded analysis.
type Run struct {
	ID        string     `json:"id"`
	Params    RunParams  `json:"params"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
