// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package lookup is an objective that scores molecules from a precomputed
// CSV table instead of running anything.
package lookup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/specialistvlad/moldyngo/internal/config"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/harvest"
	"github.com/specialistvlad/moldyngo/internal/hcl_adapter"
	"github.com/specialistvlad/moldyngo/internal/metrics"
	"github.com/specialistvlad/moldyngo/internal/objective"
	"github.com/specialistvlad/moldyngo/internal/registry"
)

const kind = string(registry.KindLookup)

// Config is the lookup objective configuration file.
type Config struct {
	// Path is the CSV table, relative to the configuration file unless absolute.
	Path        string `hcl:"path"`
	Delimiter   string `hcl:"delimiter,optional"`
	HasHeader   bool   `hcl:"has_header,optional"`
	IDColumn    int    `hcl:"id_column,optional"`
	ScoreColumn int    `hcl:"score_column,optional"`
}

// DefaultConfig returns a Config holding every optional default.
func DefaultConfig() Config {
	return Config{Delimiter: ",", HasHeader: true, IDColumn: 0, ScoreColumn: 1}
}

// Objective answers Forward from an in-memory table.
type Objective struct {
	// raw holds the unsigned cell text per id; parsing is deferred so a bad
	// cell only affects its own molecule.
	raw      map[string]string
	polarity float64
	metrics  *metrics.Recorder
}

var _ objective.Objective = (*Objective)(nil)

// New loads the configuration at path and reads the whole table.
func New(ctx context.Context, path string, opts registry.Options) (*Objective, error) {
	logger := ctxlog.FromContext(ctx).With("objective", kind)

	loader := opts.Loader
	if loader == nil {
		loader = hcl_adapter.NewLoader()
	}
	cfg := DefaultConfig()
	if err := loader.Load(ctx, path, &cfg); err != nil {
		return nil, err
	}

	table := cfg.Path
	if table == "" {
		return nil, config.Errorf("path", path, "lookup table path is required")
	}
	if !filepath.IsAbs(table) {
		table = filepath.Join(filepath.Dir(path), table)
	}
	raw, err := readTable(table, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Lookup table loaded.", "path", table, "molecules", len(raw))

	return &Objective{raw: raw, polarity: objective.Polarity(opts.Minimize), metrics: opts.Metrics}, nil
}

func readTable(path string, cfg Config) (map[string]string, error) {
	if utf8.RuneCountInString(cfg.Delimiter) != 1 {
		return nil, config.Errorf("delimiter", path, "delimiter must be a single character, got %q", cfg.Delimiter)
	}
	if cfg.IDColumn < 0 || cfg.ScoreColumn < 0 || cfg.IDColumn == cfg.ScoreColumn {
		return nil, config.Errorf("score_column", path, "id_column (%d) and score_column (%d) must be distinct and non-negative", cfg.IDColumn, cfg.ScoreColumn)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &config.Error{Field: "path", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma, _ = utf8.DecodeRuneInString(cfg.Delimiter)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	raw := make(map[string]string)
	header := cfg.HasHeader
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &config.Error{Field: "path", Path: path, Err: fmt.Errorf("failed to read table: %w", err)}
		}
		if header {
			header = false
			continue
		}
		if cfg.IDColumn >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[cfg.IDColumn])
		if id == "" {
			continue
		}
		if _, dup := raw[id]; dup {
			continue
		}
		cell := ""
		if cfg.ScoreColumn < len(rec) {
			cell = rec[cfg.ScoreColumn]
		}
		raw[id] = cell
	}
	return raw, nil
}

// Len returns how many molecules the table holds.
func (o *Objective) Len() int { return len(o.raw) }

// Forward returns the signed table value of every distinct id. Unknown ids
// and unparsable cells are Missing.
func (o *Objective) Forward(ctx context.Context, ids []string, rc objective.RunContext) (objective.ScoreMap, error) {
	logger := ctxlog.FromContext(ctx).With("objective", kind, "iteration", rc.Iteration)

	ids = objective.Dedupe(ids)
	scores := make(objective.ScoreMap, len(ids))
	for _, id := range ids {
		cell, ok := o.raw[id]
		if !ok {
			scores[id] = objective.Missing
			continue
		}
		v, err := harvest.ParseValue(cell)
		if err != nil {
			logger.Warn("Unusable lookup value, scoring as missing.", "id", id, "error", err)
			scores[id] = objective.Missing
			continue
		}
		scores[id] = objective.Value(o.polarity * v)
	}
	o.metrics.ObserveScores(kind, scores)
	return scores, nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the lookup constructor to r.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.KindLookup, func(ctx context.Context, path string, opts registry.Options) (objective.Objective, error) {
		obj, err := New(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return obj, nil
	})
}
