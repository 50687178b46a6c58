// Package workspace indexes the per-molecule simulation workspaces that live
// under a single root directory.
//
// A workspace is an immediate subdirectory of the root whose name matches a
// glob pattern (by default "*_pose_*") and which contains an identifier file
// (by default "ligand.smi"). The first whitespace-delimited token of that file
// is the molecule id the workspace belongs to. Workspaces without a readable
// id are skipped with a warning; the index is built once and never refreshed.
package workspace
