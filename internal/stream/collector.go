// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/logsink"
)

// DefaultBuffer is the number of lines the reader may run ahead of the sink.
const DefaultBuffer = 256

// ExitStatus describes how a process ended.
type ExitStatus struct {
	// Code is the exit code, or -1 when the process was killed by a signal.
	Code int
}

// Success reports whether the process exited with code zero.
func (s ExitStatus) Success() bool { return s.Code == 0 }

func (s ExitStatus) String() string {
	if s.Code < 0 {
		return "killed"
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// Process is the handle the collector needs on the running process.
type Process interface {
	// Wait blocks until the process exits. A nonzero exit is reported through
	// ExitStatus, not as an error.
	Wait() (ExitStatus, error)
	// Terminate asks the process (and anything it spawned) to stop.
	Terminate()
}

// Collector forwards output lines to a sink.
type Collector struct {
	Sink logsink.LineSink
	// Buffer bounds how many lines may be queued between reader and sink.
	Buffer int
	// OnLine, when set, is called after each line is handed to the sink.
	OnLine func(line string)
}

// Drain reads r line by line until EOF, writing every line with trailing
// whitespace removed to the sink, then waits for proc. If ctx is cancelled
// before proc exits, proc is terminated and reaped, and ctx's error is
// returned.
func (c *Collector) Drain(ctx context.Context, r io.Reader, proc Process) (ExitStatus, error) {
	logger := ctxlog.FromContext(ctx)

	buffer := c.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sink := c.Sink
	if sink == nil {
		sink = logsink.Discard
	}

	lines := make(chan string, buffer)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	go readLines(r, lines, readErr, stop)

	sinkFailed := false
	count := 0
loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			line = strings.TrimRightFunc(line, unicode.IsSpace)
			count++
			if err := sink.WriteLine(line); err != nil && !sinkFailed {
				// Reported once; draining must continue or the process could block on a full pipe.
				sinkFailed = true
				logger.Warn("Failed to write driver output to log sink.", "error", err)
			}
			if c.OnLine != nil {
				c.OnLine(line)
			}
		case <-ctx.Done():
			close(stop)
			return ExitStatus{}, interrupt(ctx, proc, nil, count)
		}
	}

	select {
	case err := <-readErr:
		logger.Warn("Driver output stream ended with an error.", "error", err)
	default:
	}

	// The stream can end while the process keeps running, so cancellation
	// is still watched until it exits.
	waited := make(chan waitResult, 1)
	go func() {
		status, err := proc.Wait()
		waited <- waitResult{status: status, err: err}
	}()

	select {
	case res := <-waited:
		if res.err != nil {
			return res.status, fmt.Errorf("waiting for driver process: %w", res.err)
		}
		logger.Debug("Driver output drained.", "lines", count, "status", res.status.String())
		return res.status, nil
	case <-ctx.Done():
		return ExitStatus{}, interrupt(ctx, proc, waited, count)
	}
}

type waitResult struct {
	status ExitStatus
	err    error
}

// interrupt terminates proc and reaps it. When waited is non-nil a Wait is
// already in flight and its result is consumed instead of calling Wait again.
func interrupt(ctx context.Context, proc Process, waited <-chan waitResult, count int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Warn("Cancellation received, terminating driver process.", "lines_read", count)
	proc.Terminate()

	var err error
	if waited != nil {
		err = (<-waited).err
	} else {
		_, err = proc.Wait()
	}
	if err != nil {
		logger.Debug("Wait after termination returned an error.", "error", err)
	}
	return fmt.Errorf("driver interrupted: %w", ctx.Err())
}

// readLines splits r into lines and sends them on out until EOF, a read error,
// or stop is closed. out is always closed on return.
func readLines(r io.Reader, out chan<- string, errc chan<- error, stop <-chan struct{}) {
	defer close(out)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case out <- line:
			case <-stop:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				errc <- err
			}
			return
		}
	}
}
