//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonAttrs sets Unix-specific daemon attributes
func configureDaemonAttrs(cmd *exec.Cmd) {
	// Detach from the controlling terminal by starting a new session
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
