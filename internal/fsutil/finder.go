// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindDirsByPattern returns the immediate subdirectories of rootPath whose
// base name matches the filepath.Match pattern, in lexical order. Nested
// directories are not visited.
func FindDirsByPattern(rootPath string, pattern string) ([]string, error) {
	if pattern == "" {
		panic("pattern must not be empty")
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid directory pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// The pattern was validated above, so Match cannot fail here.
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			dirs = append(dirs, filepath.Join(rootPath, entry.Name()))
		}
	}
	return dirs, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
