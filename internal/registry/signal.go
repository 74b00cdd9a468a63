package registry

import "syscall"

// SignalPolicy validates and delivers signals for one platform. The
// platform implementation is selected at build time; tests install a
// fake to observe delivery attempts without touching real processes.
type SignalPolicy interface {
	// Validate reports whether sig may be delivered on this platform.
	// Rejected signals fail with ErrUnsupportedSignal before any record
	// lookup or OS call happens.
	Validate(sig syscall.Signal) error

	// ForceKillSignal returns the signal used for forced termination.
	ForceKillSignal() syscall.Signal

	// Send delivers sig to pid. A target that no longer exists reports
	// ErrProcessGone; every other delivery failure passes through
	// unchanged.
	Send(pid int, sig syscall.Signal) error
}
