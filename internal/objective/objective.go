// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package objective

import "context"

// Objective is the contract the selection loop calls into. Implementations
// must return exactly one entry per distinct requested id, or an error.
type Objective interface {
	Forward(ctx context.Context, ids []string, rc RunContext) (ScoreMap, error)
}

// RunContext describes the iteration a Forward call belongs to.
type RunContext struct {
	// Iteration is the active-learning iteration number.
	Iteration int
	// OutputDir is the directory run artifacts (such as driver logs) are
	// written under.
	OutputDir string
}

// Polarity returns the sign applied to raw metric values: -1 when the raw
// metric is minimised, +1 otherwise.
func Polarity(minimize bool) float64 {
	if minimize {
		return -1
	}
	return 1
}

// Dedupe returns ids with repeated entries removed, keeping the first
// occurrence of each.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
