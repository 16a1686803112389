//go:build linux

// hioload-mpsc/internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation of thread pinning via sched_setaffinity.
// Pure Go through golang.org/x/sys/unix; no cgo required.

package concurrency

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its OS thread and binds
// that thread to cpuID modulo the number of CPUs in the process mask.
// The goroutine must not call runtime.UnlockOSThread afterwards: the pinned
// thread is discarded by the runtime when the goroutine exits still locked.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 {
		return ErrInvalidCPU
	}

	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return fmt.Errorf("pin: sched_getaffinity: %w", err)
	}
	n := allowed.Count()
	if n == 0 {
		return ErrAffinityNotSupported
	}

	// walk the allowed mask to the (cpuID mod n)-th online CPU
	target := cpuID % n
	for cpu := 0; cpu < len(allowed)*64; cpu++ {
		if !allowed.IsSet(cpu) {
			continue
		}
		if target == 0 {
			var set unix.CPUSet
			set.Set(cpu)
			if err := unix.SchedSetaffinity(0, &set); err != nil {
				return fmt.Errorf("pin: sched_setaffinity cpu %d: %w", cpu, err)
			}
			return nil
		}
		target--
	}
	return ErrInvalidCPU
}
