// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package objective

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Score is either a numeric value or Missing.
type Score struct {
	value float64
	valid bool
}

// Missing marks a molecule whose score could not be determined.
var Missing = Score{}

// Value wraps v as a present score.
func Value(v float64) Score {
	return Score{value: v, valid: true}
}

// Float64 returns the score and whether it is present.
func (s Score) Float64() (float64, bool) {
	return s.value, s.valid
}

// IsMissing reports whether s is the Missing marker.
func (s Score) IsMissing() bool {
	return !s.valid
}

func (s Score) String() string {
	if !s.valid {
		return "missing"
	}
	return strconv.FormatFloat(s.value, 'g', -1, 64)
}

// MarshalJSON encodes Missing as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON decodes null as Missing.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*s = Missing
		return nil
	}
	*s = Value(*v)
	return nil
}

// ScoreMap maps a molecule id to its score.
type ScoreMap map[string]Score

// IDs returns the map's keys in sorted order.
func (m ScoreMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Counts returns how many entries are present and how many are Missing.
func (m ScoreMap) Counts() (present, missing int) {
	for _, s := range m {
		if s.IsMissing() {
			missing++
		} else {
			present++
		}
	}
	return present, missing
}
