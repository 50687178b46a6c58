// Package objective defines the scoring contract shared by every objective
// backend: an Objective maps a batch of molecule identifiers to a ScoreMap in
// which higher scores are always better, regardless of whether the underlying
// metric is minimised or maximised.
package objective
