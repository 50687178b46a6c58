// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import "fmt"

// Error reports a configuration problem detected while constructing an
// objective: an unreadable file, a missing required key, or a path that does
// not exist. It is always fatal for construction.
type Error struct {
	// Field is the configuration key at fault, if any.
	Field string
	// Path is the file or directory involved, if any.
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Path != "":
		return fmt.Sprintf("config: %s (%s): %v", e.Field, e.Path, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	case e.Path != "":
		return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf is a shorthand for building an *Error from a format string.
func Errorf(field, path, format string, args ...any) *Error {
	return &Error{Field: field, Path: path, Err: fmt.Errorf(format, args...)}
}
