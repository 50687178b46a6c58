// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package driver

import (
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/specialistvlad/moldyngo/internal/stream"
)

// cmdProcess adapts a started *exec.Cmd to stream.Process.
type cmdProcess struct {
	cmd   *exec.Cmd
	grace time.Duration

	mu         sync.Mutex
	terminated bool
	killTimer  *time.Timer
}

var _ stream.Process = (*cmdProcess)(nil)

// Terminate sends SIGTERM to the process group and escalates to SIGKILL if
// the leader is still running after the grace period.
func (p *cmdProcess) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated {
		return
	}
	p.terminated = true
	terminateProcess(p.cmd)
	p.killTimer = time.AfterFunc(p.grace, func() { killProcess(p.cmd) })
}

// Wait reaps the process. After a Terminate, stragglers left in the process
// group are killed once the leader has gone.
func (p *cmdProcess) Wait() (stream.ExitStatus, error) {
	err := p.cmd.Wait()

	p.mu.Lock()
	if p.killTimer != nil {
		p.killTimer.Stop()
	}
	terminated := p.terminated
	p.mu.Unlock()
	if terminated {
		killProcess(p.cmd)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stream.ExitStatus{Code: 0}, nil
	case errors.As(err, &exitErr):
		return stream.ExitStatus{Code: exitErr.ExitCode()}, nil
	default:
		return stream.ExitStatus{Code: -1}, err
	}
}
