// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package logsink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LineSink receives driver output lines in arrival order.
type LineSink interface {
	WriteLine(line string) error
	Close() error
}

// File appends each line, prefixed with an RFC 3339 timestamp, to a log file.
// Writes go straight to the file descriptor so a tailing reader sees them as
// soon as they arrive.
type File struct {
	mu   sync.Mutex
	f    *os.File
	path string
	now  func() time.Time
}

// OpenFile creates the parent directory of path if needed and opens path for
// appending.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &File{f: f, path: path, now: time.Now}, nil
}

// Path returns the log file location.
func (s *File) Path() string { return s.path }

// WriteLine implements LineSink.
func (s *File) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintf(s.f, "%s %s\n", s.now().Format(time.RFC3339Nano), line)
	return err
}

// Close implements LineSink. Closing twice is a no-op.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// Multi writes every line to all of its sinks, even when some of them fail.
type Multi []LineSink

// WriteLine implements LineSink.
func (m Multi) WriteLine(line string) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteLine(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements LineSink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every line.
var Discard LineSink = discard{}

type discard struct{}

func (discard) WriteLine(string) error { return nil }
func (discard) Close() error           { return nil }
