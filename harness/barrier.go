// File: harness/barrier.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package harness

import (
	"sync"
	"sync/atomic"
)

// Barrier counts producers down to zero. The terminator waits on it before
// it may end the stream; there is no time-based fallback.
type Barrier struct {
	remaining atomic.Int64
	done      chan struct{}
	errOnce   sync.Once
	err       error
}

// NewBarrier creates a barrier for n producers. With n == 0 it is already
// released.
func NewBarrier(n int) *Barrier {
	b := &Barrier{done: make(chan struct{})}
	b.remaining.Store(int64(n))
	if n <= 0 {
		close(b.done)
	}
	return b
}

// Done reports one producer as finished, with its fatal error if any.
// Calling Done more often than the barrier's count panics.
func (b *Barrier) Done(err error) {
	if err != nil {
		b.errOnce.Do(func() { b.err = err })
	}
	n := b.remaining.Add(-1)
	switch {
	case n == 0:
		close(b.done)
	case n < 0:
		panic("harness: barrier released more times than producers")
	}
}

// WaitForAllProducers blocks until every producer has called Done and
// returns the first reported error.
func (b *Barrier) WaitForAllProducers() error {
	<-b.done
	return b.err
}

// Released returns a channel closed once every producer is done.
func (b *Barrier) Released() <-chan struct{} { return b.done }

// Remaining returns the number of producers still running.
func (b *Barrier) Remaining() int {
	n := b.remaining.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
