// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package harvest turns the result files the batch driver leaves behind into
// scores. A workspace whose result cannot be read or parsed is scored as
// Missing; one bad workspace never affects the others.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/objective"
	"github.com/specialistvlad/moldyngo/internal/workspace"
)

// DefaultResultFile is the per-workspace file holding the raw metric.
const DefaultResultFile = "avg_rmsd.txt"

// Harvester reads per-workspace result files.
type Harvester struct {
	// ResultFile is the file name looked up inside each workspace.
	ResultFile string
	// Polarity multiplies every raw value; see objective.Polarity.
	Polarity float64
}

// New returns a Harvester for resultFile (DefaultResultFile when empty).
func New(resultFile string, minimize bool) *Harvester {
	if resultFile == "" {
		resultFile = DefaultResultFile
	}
	return &Harvester{ResultFile: resultFile, Polarity: objective.Polarity(minimize)}
}

// Collect scores every entry, in order. It never fails: problems are logged
// as warnings and recorded as Missing.
func (h *Harvester) Collect(ctx context.Context, entries []workspace.Entry) objective.ScoreMap {
	logger := ctxlog.FromContext(ctx)

	scores := make(objective.ScoreMap, len(entries))
	for _, e := range entries {
		raw, err := h.Read(e.Workspace)
		if err != nil {
			logger.Warn("Could not harvest result, scoring as missing.", "id", e.ID, "workspace", e.Workspace.Path, "error", err)
			scores[e.ID] = objective.Missing
			continue
		}
		scores[e.ID] = objective.Value(h.Polarity * raw)
	}

	present, missing := scores.Counts()
	logger.Info("Harvest complete.", "scored", present, "missing", missing)
	return scores
}

// Read returns the raw metric stored in ws's result file.
func (h *Harvester) Read(ws workspace.Workspace) (float64, error) {
	path := filepath.Join(ws.Path, h.ResultFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return ParseValue(string(data))
}

// ParseValue parses the whole of s, minus surrounding whitespace, as a single
// finite float.
func ParseValue(s string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, errors.New("result file is empty")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("result is not a number: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result %q is not finite", text)
	}
	return v, nil
}
