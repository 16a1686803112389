// File: channel/lockfree_backend.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free backend over concurrency.LockFreeQueue. The queue is rounded up
// to a power of two, so the logical capacity is enforced by a reservation
// counter: a producer takes a slot before enqueueing and the consumer gives
// it back after dequeueing.

package channel

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mpsc/api"
	"github.com/momentics/hioload-mpsc/internal/concurrency"
)

type lockfreeBackend struct {
	q        *concurrency.LockFreeQueue[api.Command]
	capacity int64
	slots    atomic.Int64
	senders  atomic.Int64
	rxClosed atomic.Bool
}

func newLockFreeBackend(capacity int) backend {
	b := &lockfreeBackend{
		q:        concurrency.NewLockFreeQueue[api.Command](capacity),
		capacity: int64(capacity),
	}
	b.senders.Store(1)
	return b
}

func (b *lockfreeBackend) send(cmd api.Command) error {
	var backoff concurrency.Backoff
	for {
		if b.rxClosed.Load() {
			return api.ErrDisconnected
		}
		n := b.slots.Load()
		if n < b.capacity {
			if b.slots.CompareAndSwap(n, n+1) {
				break
			}
			continue
		}
		backoff.Wait()
	}
	// a reserved slot guarantees a free cell once in-flight dequeues land
	for !b.q.Enqueue(cmd) {
		runtime.Gosched()
	}
	return nil
}

func (b *lockfreeBackend) tryRecv() (api.Command, bool) {
	cmd, ok := b.q.Dequeue()
	if ok {
		b.slots.Add(-1)
	}
	return cmd, ok
}

func (b *lockfreeBackend) recv() (api.Command, error) {
	var backoff concurrency.Backoff
	for {
		if cmd, ok := b.tryRecv(); ok {
			return cmd, nil
		}
		if b.senders.Load() == 0 {
			// the last sender may have enqueued right before leaving
			if cmd, ok := b.tryRecv(); ok {
				return cmd, nil
			}
			return api.Command{}, api.ErrDisconnected
		}
		backoff.Wait()
	}
}

func (b *lockfreeBackend) recvTimeout(d time.Duration) (api.Command, error) {
	deadline := time.Now().Add(d)
	var backoff concurrency.Backoff
	for {
		if cmd, ok := b.tryRecv(); ok {
			return cmd, nil
		}
		if b.senders.Load() == 0 {
			if cmd, ok := b.tryRecv(); ok {
				return cmd, nil
			}
			return api.Command{}, api.ErrDisconnected
		}
		if !time.Now().Before(deadline) {
			return api.Command{}, api.ErrTimeout
		}
		backoff.Wait()
	}
}

func (b *lockfreeBackend) addSender() { b.senders.Add(1) }

func (b *lockfreeBackend) dropSender() { b.senders.Add(-1) }

func (b *lockfreeBackend) closeReceiver() { b.rxClosed.Store(true) }

func (b *lockfreeBackend) len() int { return int(b.slots.Load()) }

func (b *lockfreeBackend) cap() int { return int(b.capacity) }
