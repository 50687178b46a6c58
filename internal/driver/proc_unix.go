//go:build !windows

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package driver

import (
	"os/exec"
	"syscall"
)

func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup sends sig to the driver's whole process group (the shell and
// every simulation it spawned). The group id equals the leader's pid because
// the driver was started with Setpgid.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return
	}
	if err := syscall.Kill(-pid, sig); err != nil && sig == syscall.SIGKILL {
		_ = cmd.Process.Kill()
	}
}

func terminateProcess(cmd *exec.Cmd) { signalGroup(cmd, syscall.SIGTERM) }

func killProcess(cmd *exec.Cmd) { signalGroup(cmd, syscall.SIGKILL) }
