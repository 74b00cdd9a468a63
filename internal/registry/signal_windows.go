//go:build windows

package registry

import (
	"errors"
	"syscall"
)

var (
	kernel32                     = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess              = kernel32.NewProc("OpenProcess")
	procTerminateProcess         = kernel32.NewProc("TerminateProcess")
	procCloseHandle              = kernel32.NewProc("CloseHandle")
	procGenerateConsoleCtrlEvent = kernel32.NewProc("GenerateConsoleCtrlEvent")
)

const (
	PROCESS_TERMINATE = 0x0001

	// ERROR_INVALID_PARAMETER is what the kernel reports for a PID that
	// is dead or never existed.
	ERROR_INVALID_PARAMETER = syscall.Errno(87)
)

// windowsPolicy restricts delivery to the interruptions Windows can
// actually express: TerminateProcess for SIGTERM and console control
// events for CTRL_C_EVENT and CTRL_BREAK_EVENT. Everything else is
// rejected before any record lookup.
type windowsPolicy struct{}

func newSignalPolicy() SignalPolicy { return windowsPolicy{} }

func (windowsPolicy) Validate(sig syscall.Signal) error {
	switch sig {
	case syscall.SIGTERM, syscall.Signal(syscall.CTRL_C_EVENT), syscall.Signal(syscall.CTRL_BREAK_EVENT):
		return nil
	}
	return ErrUnsupportedSignal
}

// ForceKillSignal returns SIGTERM. Windows has no SIGKILL equivalent in
// this vocabulary, so forced kills degrade to a termination request.
func (windowsPolicy) ForceKillSignal() syscall.Signal { return syscall.SIGTERM }

func (windowsPolicy) Send(pid int, sig syscall.Signal) error {
	switch sig {
	case syscall.Signal(syscall.CTRL_C_EVENT), syscall.Signal(syscall.CTRL_BREAK_EVENT):
		ret, _, callErr := procGenerateConsoleCtrlEvent.Call(uintptr(sig), uintptr(uint32(pid)))
		if ret == 0 {
			return mapWinError(callErr)
		}
		return nil
	}

	handle, err := openProcess(PROCESS_TERMINATE, uint32(pid))
	if err != nil {
		return mapWinError(err)
	}
	defer closeHandle(handle)

	ret, _, callErr := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	if ret == 0 {
		return mapWinError(callErr)
	}
	return nil
}

// mapWinError translates the invalid-parameter failure reported for dead
// PIDs into ErrProcessGone and leaves everything else untouched.
func mapWinError(err error) error {
	if errors.Is(err, ERROR_INVALID_PARAMETER) {
		return ErrProcessGone
	}
	return err
}

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), 0, uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(handle syscall.Handle) {
	_, _, _ = procCloseHandle.Call(uintptr(handle))
}
