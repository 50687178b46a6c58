// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package driver

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/logsink"
	"github.com/specialistvlad/moldyngo/internal/stream"
	"github.com/specialistvlad/moldyngo/internal/workspace"
)

// DefaultGrace is how long a terminated driver may take to exit before its
// process group is killed.
const DefaultGrace = 5 * time.Second

// LaunchError reports that the driver process could not be started.
type LaunchError struct {
	Command []string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch batch driver %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Destination is where a batch's output goes.
type Destination struct {
	// Path is the log file location, reported in progress messages.
	Path string
	Sink logsink.LineSink
}

// Invoker runs the batch driver script.
type Invoker struct {
	// Script is the driver executable or script.
	Script string
	// Shell, when set, is used to run Script (e.g. "bash"); otherwise Script
	// is executed directly.
	Shell string
	// ManifestPath is where the workspace list is written before every batch.
	ManifestPath string
	// Dir is the driver's working directory; empty means the current one.
	Dir string
	// Grace bounds how long a cancelled driver may take to stop.
	Grace time.Duration
	// Buffer bounds how many output lines may be queued ahead of the sink.
	Buffer int
	// OnLine is called for every output line.
	OnLine func(line string)
}

// Command returns the argv the driver is started with.
func (inv *Invoker) Command() []string {
	if inv.Shell == "" {
		return []string{inv.Script, inv.ManifestPath}
	}
	return []string{inv.Shell, inv.Script, inv.ManifestPath}
}

// BatchRun is one invocation of the driver.
type BatchRun struct {
	Workspaces []workspace.Workspace
	Dest       Destination

	cmd    *exec.Cmd
	proc   *cmdProcess
	output io.ReadCloser
	coll   *stream.Collector
	state  runState
}

// State returns the run's current lifecycle state.
func (b *BatchRun) State() State { return b.state.get() }

// Result returns the final exit status and error. It is only meaningful once
// State is terminal.
func (b *BatchRun) Result() (stream.ExitStatus, error) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	return b.state.status, b.state.err
}

// Pid returns the driver's process id, or 0 before it has started.
func (b *BatchRun) Pid() int {
	if b.cmd == nil || b.cmd.Process == nil {
		return 0
	}
	return b.cmd.Process.Pid
}

// Run writes the manifest, launches the driver and blocks until it exits or
// ctx is cancelled. A nonzero exit is returned as status with a nil error.
func (inv *Invoker) Run(ctx context.Context, workspaces []workspace.Workspace, dest Destination) (stream.ExitStatus, error) {
	run, err := inv.Start(ctx, workspaces, dest)
	if err != nil {
		return stream.ExitStatus{}, err
	}
	return run.Wait(ctx)
}

// Start writes the manifest and launches the driver. The returned run is in
// the Streaming state; the caller must call Wait.
func (inv *Invoker) Start(ctx context.Context, workspaces []workspace.Workspace, dest Destination) (*BatchRun, error) {
	logger := ctxlog.FromContext(ctx)

	if len(workspaces) == 0 {
		return nil, ErrEmptyBatch
	}

	run := &BatchRun{Workspaces: workspaces, Dest: dest}

	if err := WriteManifest(inv.ManifestPath, workspaces); err != nil {
		_ = run.state.transition(Failed, stream.ExitStatus{}, err)
		return nil, err
	}
	logger.Debug("Manifest written.", "path", inv.ManifestPath, "workspaces", len(workspaces))

	argv := inv.Command()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = inv.Dir
	configureProcess(cmd)

	output, err := cmd.StdoutPipe()
	if err != nil {
		launchErr := &LaunchError{Command: argv, Err: err}
		_ = run.state.transition(Failed, stream.ExitStatus{}, launchErr)
		return nil, launchErr
	}
	// Merge stderr into the same pipe.
	cmd.Stderr = cmd.Stdout

	logger.Info("Running batch driver.", "molecules", len(workspaces), "log_path", dest.Path)
	if err := cmd.Start(); err != nil {
		launchErr := &LaunchError{Command: argv, Err: err}
		_ = run.state.transition(Failed, stream.ExitStatus{}, launchErr)
		return nil, launchErr
	}

	grace := inv.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	run.cmd = cmd
	run.output = output
	run.proc = &cmdProcess{cmd: cmd, grace: grace}
	run.coll = &stream.Collector{Sink: dest.Sink, Buffer: inv.Buffer, OnLine: inv.OnLine}
	_ = run.state.transition(Streaming, stream.ExitStatus{}, nil)
	logger.Debug("Batch driver started.", "pid", cmd.Process.Pid, "command", argv)
	return run, nil
}

// Wait drains the driver's output until it exits, moving the run to
// Terminated, or to Failed when ctx is cancelled or the wait itself fails.
func (b *BatchRun) Wait(ctx context.Context) (stream.ExitStatus, error) {
	logger := ctxlog.FromContext(ctx)
	if b.State() != Streaming {
		return stream.ExitStatus{}, fmt.Errorf("batch run is %s, not streaming", b.State())
	}

	started := time.Now()
	status, err := b.coll.Drain(ctx, b.output, b.proc)
	if err != nil {
		_ = b.state.transition(Failed, status, err)
		return status, err
	}
	_ = b.state.transition(Terminated, status, nil)

	if status.Success() {
		logger.Info("Batch driver finished.", "status", status.String(), "duration", time.Since(started).Round(time.Millisecond), "log_path", b.Dest.Path)
	} else {
		logger.Warn("Batch driver failed, harvesting partial results.", "status", status.String(), "duration", time.Since(started).Round(time.Millisecond), "log_path", b.Dest.Path)
	}
	return status, nil
}
