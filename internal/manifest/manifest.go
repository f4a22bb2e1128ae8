// Package manifest loads batch run definitions from YAML. A manifest
// names one job per input dataset; job fields left unset fall back to
// the manifest defaults, then to the built-in ones.
package manifest

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Built-in fallbacks, applied after the manifest defaults.
const (
	DefaultReplicates = 200
	DefaultConfLevel  = 0.95
)

// Manifest is a parsed batch file.
type Manifest struct {
	Defaults Defaults `yaml:"defaults"`
	Jobs     []Job    `yaml:"jobs"`
}

// Defaults are manifest-wide settings a job inherits unless it sets
// its own.
type Defaults struct {
	B              *int     `yaml:"b"`
	ConfLevel      *float64 `yaml:"conf_level"`
	UsePercentages *bool    `yaml:"use_percentages"`
	CheckOverlap   *bool    `yaml:"check_overlap"`
	ExportFormat   string   `yaml:"export_format"`
	ExportDir      string   `yaml:"export_dir"`
}

// Job describes one dataset to test.
type Job struct {
	Name           string   `yaml:"name"`
	Input          string   `yaml:"input"`
	GroupCol       string   `yaml:"group_col"`
	CountCols      []string `yaml:"count_cols"`
	Prefixes       []string `yaml:"prefixes"`
	B              *int     `yaml:"b"`
	Seed           *int64   `yaml:"seed"`
	ConfLevel      *float64 `yaml:"conf_level"`
	UsePercentages *bool    `yaml:"use_percentages"`
	CheckOverlap   *bool    `yaml:"check_overlap"`
	FixBase        bool     `yaml:"fix_base"`
	ExportFormat   string   `yaml:"export_format"`
	ExportDir      string   `yaml:"export_dir"`
	MapOut         string   `yaml:"map_out"`
}

// Load reads and validates a manifest file. Unknown YAML keys are an
// error so that typos do not silently fall through to defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: read %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, eris.Wrapf(err, "manifest: parse %s", path)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.B == nil {
			j.B = m.Defaults.B
		}
		if j.B == nil {
			j.B = intPtr(DefaultReplicates)
		}
		if j.ConfLevel == nil {
			j.ConfLevel = m.Defaults.ConfLevel
		}
		if j.ConfLevel == nil {
			j.ConfLevel = floatPtr(DefaultConfLevel)
		}
		if j.UsePercentages == nil {
			j.UsePercentages = m.Defaults.UsePercentages
		}
		if j.UsePercentages == nil {
			j.UsePercentages = boolPtr(true)
		}
		if j.CheckOverlap == nil {
			j.CheckOverlap = m.Defaults.CheckOverlap
		}
		if j.CheckOverlap == nil {
			j.CheckOverlap = boolPtr(true)
		}
		if j.ExportFormat == "" {
			j.ExportFormat = m.Defaults.ExportFormat
		}
		if j.ExportDir == "" {
			j.ExportDir = m.Defaults.ExportDir
		}
	}
}

func (m *Manifest) validate() error {
	if len(m.Jobs) == 0 {
		return eris.New("manifest: no jobs defined")
	}

	names := make(map[string]bool, len(m.Jobs))
	for i, j := range m.Jobs {
		if j.Name == "" {
			return eris.Errorf("manifest: job %d has no name", i)
		}
		if names[j.Name] {
			return eris.Errorf("manifest: duplicate job name %q", j.Name)
		}
		names[j.Name] = true

		if j.Input == "" {
			return eris.Errorf("manifest: job %q has no input", j.Name)
		}
		if j.GroupCol == "" {
			return eris.Errorf("manifest: job %q has no group_col", j.Name)
		}
		if len(j.CountCols) < 1 {
			return eris.Errorf("manifest: job %q needs at least one count column", j.Name)
		}
		if j.FixBase && len(j.CountCols) != 2 {
			return eris.Errorf("manifest: job %q: fix_base requires exactly two count columns", j.Name)
		}
		if len(j.Prefixes) > 0 && len(j.Prefixes) != len(j.CountCols) {
			return eris.Errorf("manifest: job %q: prefixes must match count columns", j.Name)
		}
		if *j.B <= 0 {
			return eris.Errorf("manifest: job %q: b must be positive", j.Name)
		}
		if *j.ConfLevel <= 0 || *j.ConfLevel >= 1 {
			return eris.Errorf("manifest: job %q: conf_level must be in (0, 1)", j.Name)
		}
	}
	return nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
