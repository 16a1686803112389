//go:build !linux

// hioload-mpsc/internal/concurrency/pin.go
// Author: momentics <momentics@gmail.com>
//
// CPU pinning fallback for platforms without sched_setaffinity.

package concurrency

import "runtime"

// PinCurrentThread locks the calling goroutine to its OS thread. CPU affinity
// is not available on this platform, so ErrAffinityNotSupported is returned
// after the lock is taken.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	return ErrAffinityNotSupported
}
