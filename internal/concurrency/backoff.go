// File: internal/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adaptive backoff for goroutines waiting on a lock-free structure:
// busy-yield first, then sleep with exponential growth up to a ceiling.

package concurrency

import (
	"runtime"
	"time"
)

const (
	defaultSpins    = 64
	defaultMinSleep = time.Microsecond
	defaultMaxSleep = 100 * time.Microsecond
)

// Backoff is a per-waiter state machine. The zero value uses defaults.
// Not safe for concurrent use.
type Backoff struct {
	// Spins is the number of runtime.Gosched rounds before sleeping.
	Spins int
	// MaxSleep caps the sleep duration.
	MaxSleep time.Duration

	round int
	sleep time.Duration
}

// Wait blocks the caller for the current step and advances the state.
func (b *Backoff) Wait() {
	spins := b.Spins
	if spins == 0 {
		spins = defaultSpins
	}
	if b.round < spins {
		b.round++
		runtime.Gosched()
		return
	}

	maxSleep := b.MaxSleep
	if maxSleep <= 0 {
		maxSleep = defaultMaxSleep
	}
	if b.sleep == 0 {
		b.sleep = defaultMinSleep
	}
	time.Sleep(b.sleep)
	b.sleep *= 2
	if b.sleep > maxSleep {
		b.sleep = maxSleep
	}
}

// Reset returns to the spinning phase after progress was made.
func (b *Backoff) Reset() {
	b.round = 0
	b.sleep = 0
}
