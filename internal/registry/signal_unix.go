//go:build !windows

package registry

import (
	"errors"
	"syscall"
)

// unixPolicy delivers signals with kill(2). Any signal number is
// accepted, including 0 for the conventional existence probe.
type unixPolicy struct{}

func newSignalPolicy() SignalPolicy { return unixPolicy{} }

func (unixPolicy) Validate(_ syscall.Signal) error { return nil }

func (unixPolicy) ForceKillSignal() syscall.Signal { return syscall.SIGKILL }

func (unixPolicy) Send(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return ErrProcessGone
		}
		return err
	}
	return nil
}
