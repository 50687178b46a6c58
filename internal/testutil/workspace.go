// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WorkspaceSpec describes one workspace directory to create.
type WorkspaceSpec struct {
	Dir string
	// Identifier is written to ligand.smi unless NoIdentifier is set.
	Identifier   string
	NoIdentifier bool
	// Result, when non-nil, is written to avg_rmsd.txt.
	Result *string
}

// Str returns a pointer to s, for WorkspaceSpec.Result.
func Str(s string) *string { return &s }

// WriteWorkspaces creates the given workspaces under root and returns root.
func WriteWorkspaces(t *testing.T, root string, specs ...WorkspaceSpec) string {
	t.Helper()
	for _, spec := range specs {
		dir := filepath.Join(root, spec.Dir)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		if !spec.NoIdentifier {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "ligand.smi"), []byte(spec.Identifier+"\n"), 0o644))
		}
		if spec.Result != nil {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "avg_rmsd.txt"), []byte(*spec.Result), 0o644))
		}
	}
	return root
}

// WriteScript writes an executable POSIX shell script to path.
func WriteScript(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}
