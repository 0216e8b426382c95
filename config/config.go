// Package config loads grid options, column declarations and initial sort and filter from yaml.
package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gridlite"
	nt "gridlite/entity"
	"gridlite/sorting"
)

// SortSpec declares an initial sort key.
type SortSpec struct {
	Key           string `yaml:"key"`
	Direction     string `yaml:"direction,omitempty"`
	CaseSensitive *bool  `yaml:"case_sensitive,omitempty"`
}

// FilterSpec declares an initial filter expression; an empty condition takes the column's default.
type FilterSpec struct {
	Key           string `yaml:"key"`
	Condition     string `yaml:"condition,omitempty"`
	Term          any    `yaml:"term,omitempty"`
	CaseSensitive *bool  `yaml:"case_sensitive,omitempty"`
	Criteria      string `yaml:"criteria,omitempty"`
}

// Config is the top level of a config file.
type Config struct {
	Grid     gridlite.Config `yaml:"grid"`
	Pushdown bool            `yaml:"pushdown"`
	Log      string          `yaml:"log,omitempty"`
	Columns  []nt.Column     `yaml:"columns,omitempty"`
	Sort     []SortSpec      `yaml:"sort,omitempty"`
	Filter   []FilterSpec    `yaml:"filter,omitempty"`
}

// Default is the config used when none is given.
func Default() *Config {

	return &Config{
		Grid: gridlite.Config{
			AutoGenerate: true,
			SortMode:     sorting.Multiple,
		},
		Log: "gridlite.log",
	}
}

// Load reads a config file over the defaults.
func Load(path string) (cfg *Config, err error) {

	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read from %s", path)
		return
	}

	cfg = Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = errors.Wrapf(err, "failed to unmarshal %s", path)
		return
	}

	err = cfg.validate()
	return
}

// Write validates the config and writes it to path as two-space indented yaml.
func (cfg *Config) Write(path string, mode os.FileMode) (err error) {

	err = cfg.validate()
	if err != nil {
		err = errors.Wrapf(err, "refusing to write invalid config to %s", path)
		return
	}

	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	err = enc.Encode(cfg)
	if err == nil {
		err = enc.Close()
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to marshal config")
		return
	}

	err = os.WriteFile(path, buf.Bytes(), mode)
	err = errors.Wrapf(err, "failed to write config to %s", path)
	return
}

// Sample writes an example config unless path already exists.
func Sample(path string, mode os.FileMode) (err error) {

	_, err = os.Stat(path)
	if err == nil {
		return
	}

	cfg := Default()
	cfg.Columns = []nt.Column{
		{Field: "id", DataType: nt.Number, Header: "ID", Width: 6, Sortable: true},
		{Field: "name", Header: "Name", Width: 20, Sortable: true, Filterable: true},
		{Field: "active", DataType: nt.Boolean, Header: "Active", Width: 8, Sortable: true, Filterable: true},
		{Field: "address.city", Header: "City", Width: 16, Sortable: true, Filterable: true},
	}
	cfg.Sort = []SortSpec{{Key: "name", Direction: "asc"}}

	err = cfg.Write(path, mode)
	return
}

// Apply installs the declared columns, then the initial filter and sort, recomputing the view.
func (cfg *Config) Apply(ctx context.Context, grid *gridlite.Grid) (err error) {

	if len(cfg.Columns) > 0 {
		grid.SetColumnConfiguration(ctx, cfg.Columns)
	}

	exprs := make([]nt.FilterExpression, len(cfg.Filter))
	for i, spec := range cfg.Filter {
		exprs[i], err = spec.expression()
		if err != nil {
			return
		}
	}
	if len(exprs) > 0 {
		err = grid.Filter(ctx, exprs...)
		if err != nil {
			err = errors.Wrapf(err, "failed to apply configured filter")
			return
		}
	}

	sorts := make([]nt.SortExpression, len(cfg.Sort))
	for i, spec := range cfg.Sort {
		sorts[i], err = spec.expression()
		if err != nil {
			return
		}
	}
	if len(sorts) > 0 {
		grid.Sort(ctx, sorts...)
	}

	return
}

// OpenLog opens the configured log for appending, creating its directory as needed.
// An empty log path disables logging. A log that cannot be opened is reported on warn
// and discarded, so a bad path never keeps the grid from running.
func (cfg *Config) OpenLog(warn io.Writer) io.WriteCloser {

	if cfg.Log == "" {
		return discard{}
	}

	err := os.MkdirAll(filepath.Dir(cfg.Log), 0755)
	if err == nil {
		var file *os.File
		file, err = os.OpenFile(cfg.Log, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logMode)
		if err == nil {
			return file
		}
	}

	err = errors.Wrapf(err, "failed to open log %s", cfg.Log)
	fmt.Fprintf(warn, "warning: logging disabled: %s\n", err)
	return discard{}
}

// unexported

const logMode os.FileMode = 0644

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }

func (cfg *Config) validate() (err error) {

	switch cfg.Grid.SortMode {
	case "", sorting.Single, sorting.Multiple:
	default:
		return errors.Errorf("unknown sort_mode %q", cfg.Grid.SortMode)
	}

	seen := map[string]bool{}
	for _, col := range cfg.Columns {
		if col.Field == "" {
			return errors.Errorf("column without field")
		}
		if seen[col.Field] {
			return errors.Errorf("duplicate column %q", col.Field)
		}
		seen[col.Field] = true
	}
	return
}

func (spec SortSpec) expression() (expr nt.SortExpression, err error) {

	dir, err := nt.ParseDirection(spec.Direction)
	if err != nil {
		err = errors.Wrapf(err, "bad sort on %s", spec.Key)
		return
	}

	expr = nt.SortExpression{
		Key:           spec.Key,
		Direction:     dir,
		CaseSensitive: spec.CaseSensitive,
	}
	return
}

func (spec FilterSpec) expression() (expr nt.FilterExpression, err error) {

	cr, err := nt.ParseCriteria(spec.Criteria)
	if err != nil {
		err = errors.Wrapf(err, "bad filter on %s", spec.Key)
		return
	}

	expr = nt.FilterExpression{
		Key:           spec.Key,
		Condition:     nt.Condition(spec.Condition),
		SearchTerm:    spec.Term,
		CaseSensitive: spec.CaseSensitive,
		Criteria:      cr,
	}
	return
}
