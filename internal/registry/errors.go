package registry

import "errors"

// Sentinel errors returned by registry operations. Callers match them
// with errors.Is; platform and I/O failures outside this set propagate
// unchanged.
var (
	// ErrNotFound reports that no record exists for the requested name.
	ErrNotFound = errors.New("process not found")

	// ErrUnsupportedSignal reports that the signal cannot be delivered
	// on the current platform. No record is consulted in that case.
	ErrUnsupportedSignal = errors.New("unsupported signal")

	// ErrProcessGone reports that the recorded PID no longer names a
	// live OS process. By the time a caller sees it the record has
	// already been healed with the -1 return code sentinel.
	ErrProcessGone = errors.New("process already gone")

	// ErrNotTerminated reports that removal was refused because the
	// process is still considered live and force was not set.
	ErrNotTerminated = errors.New("process not terminated")
)
