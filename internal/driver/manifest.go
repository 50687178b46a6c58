// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package driver

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/moldyngo/internal/fsutil"
	"github.com/specialistvlad/moldyngo/internal/workspace"
)

// ErrEmptyBatch is returned when a batch has no workspaces.
var ErrEmptyBatch = errors.New("batch has no workspaces")

// WriteManifest replaces the manifest at path with one workspace path per
// line, in the given order.
func WriteManifest(path string, workspaces []workspace.Workspace) error {
	if len(workspaces) == 0 {
		return ErrEmptyBatch
	}
	var b strings.Builder
	for _, ws := range workspaces {
		if strings.ContainsAny(ws.Path, "\r\n") {
			return fmt.Errorf("workspace path %q contains a line break", ws.Path)
		}
		b.WriteString(ws.Path)
		b.WriteByte('\n')
	}
	if err := fsutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest returns the workspace paths listed in the manifest at path.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return paths, nil
}
