// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/moldyngo/internal/config"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/fsutil"
)

const (
	DefaultPattern        = "*_pose_*"
	DefaultIdentifierFile = "ligand.smi"
)

// Workspace is one molecule's simulation directory.
type Workspace struct {
	Path       string
	MoleculeID string
}

// Entry pairs a requested id with the workspace it resolved to.
type Entry struct {
	ID        string
	Workspace Workspace
}

// Options controls how the root is scanned.
type Options struct {
	// Pattern is the filepath.Match pattern workspace directory names must match.
	Pattern string
	// IdentifierFile is the file inside each workspace holding the molecule id.
	IdentifierFile string
}

func (o Options) withDefaults() Options {
	if o.Pattern == "" {
		o.Pattern = DefaultPattern
	}
	if o.IdentifierFile == "" {
		o.IdentifierFile = DefaultIdentifierFile
	}
	return o
}

// UnknownMoleculeError is returned when a requested id has no workspace.
type UnknownMoleculeError struct {
	ID   string
	Root string
}

func (e *UnknownMoleculeError) Error() string {
	return fmt.Sprintf("no workspace found for molecule %q under %s", e.ID, e.Root)
}

// Index maps molecule ids to workspaces.
type Index struct {
	root  string
	byID  map[string]Workspace
	order []string
}

// Build scans root and returns the resulting index. It fails only when root
// cannot be listed or the pattern is malformed; individual workspaces without
// a usable identifier are reported and skipped.
func Build(ctx context.Context, root string, opts Options) (*Index, error) {
	logger := ctxlog.FromContext(ctx)
	opts = opts.withDefaults()

	if !fsutil.IsDir(root) {
		return nil, config.Errorf("path", root, "workspace root does not exist or is not a directory")
	}

	dirs, err := fsutil.FindDirsByPattern(root, opts.Pattern)
	if err != nil {
		return nil, &config.Error{Field: "workspace_pattern", Path: root, Err: err}
	}
	logger.Debug("Scanning workspaces.", "root", root, "pattern", opts.Pattern, "candidates", len(dirs))

	idx := &Index{root: root, byID: make(map[string]Workspace, len(dirs))}
	for _, dir := range dirs {
		id, err := readIdentifier(filepath.Join(dir, opts.IdentifierFile))
		if err != nil {
			logger.Warn("Skipping workspace without a usable identifier.", "workspace", dir, "error", err)
			continue
		}
		if prev, dup := idx.byID[id]; dup {
			logger.Warn("Duplicate molecule id, keeping first workspace.", "id", id, "kept", prev.Path, "skipped", dir)
			continue
		}
		idx.byID[id] = Workspace{Path: dir, MoleculeID: id}
		idx.order = append(idx.order, id)
	}

	logger.Info("Workspace index built.", "root", root, "molecules", len(idx.byID))
	return idx, nil
}

// readIdentifier returns the first whitespace-delimited token of the file.
func readIdentifier(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", errors.New("identifier file is empty")
	}
	return fields[0], nil
}

// Root returns the directory the index was built from.
func (idx *Index) Root() string { return idx.root }

// Len returns the number of indexed molecules.
func (idx *Index) Len() int { return len(idx.byID) }

// IDs returns the indexed molecule ids in sorted order.
func (idx *Index) IDs() []string {
	ids := make([]string, len(idx.order))
	copy(ids, idx.order)
	sort.Strings(ids)
	return ids
}

// Lookup returns the workspace for id, or an *UnknownMoleculeError.
func (idx *Index) Lookup(id string) (Workspace, error) {
	ws, ok := idx.byID[id]
	if !ok {
		return Workspace{}, &UnknownMoleculeError{ID: id, Root: idx.root}
	}
	return ws, nil
}

// Resolve looks up every id in order and fails on the first miss.
func (idx *Index) Resolve(ids []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		ws, err := idx.Lookup(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: id, Workspace: ws})
	}
	return entries, nil
}

// Workspaces returns the workspaces of entries, preserving order.
func Workspaces(entries []Entry) []Workspace {
	out := make([]Workspace, len(entries))
	for i, e := range entries {
		out[i] = e.Workspace
	}
	return out
}
