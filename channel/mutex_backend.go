// File: channel/mutex_backend.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-based backend: one mutex guards an eapache ring queue bounded at the
// channel capacity, with separate wakeups for the consumer and for blocked
// producers.

package channel

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-mpsc/api"
)

type mutexBackend struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond
	buf      *queue.Queue
	capacity int
	senders  int
	rxClosed bool
}

func newMutexBackend(capacity int) backend {
	b := &mutexBackend{
		buf:      queue.New(),
		capacity: capacity,
		senders:  1,
	}
	b.notEmpty.L = &b.mu
	b.notFull.L = &b.mu
	return b
}

func (b *mutexBackend) send(cmd api.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.buf.Length() >= b.capacity && !b.rxClosed {
		b.notFull.Wait()
	}
	if b.rxClosed {
		return api.ErrDisconnected
	}
	b.buf.Add(cmd)
	b.notEmpty.Signal()
	return nil
}

func (b *mutexBackend) recv() (api.Command, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.buf.Length() == 0 && b.senders > 0 {
		b.notEmpty.Wait()
	}
	return b.popLocked()
}

func (b *mutexBackend) recvTimeout(d time.Duration) (api.Command, error) {
	// expired is only touched with mu held
	expired := false
	timer := time.AfterFunc(d, func() {
		b.mu.Lock()
		expired = true
		b.notEmpty.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for b.buf.Length() == 0 && b.senders > 0 && !expired {
		b.notEmpty.Wait()
	}
	if b.buf.Length() == 0 && b.senders > 0 {
		return api.Command{}, api.ErrTimeout
	}
	return b.popLocked()
}

func (b *mutexBackend) popLocked() (api.Command, error) {
	if b.buf.Length() == 0 {
		return api.Command{}, api.ErrDisconnected
	}
	cmd := b.buf.Remove().(api.Command)
	b.notFull.Signal()
	return cmd, nil
}

func (b *mutexBackend) addSender() {
	b.mu.Lock()
	b.senders++
	b.mu.Unlock()
}

func (b *mutexBackend) dropSender() {
	b.mu.Lock()
	b.senders--
	if b.senders == 0 {
		b.notEmpty.Broadcast()
	}
	b.mu.Unlock()
}

func (b *mutexBackend) closeReceiver() {
	b.mu.Lock()
	b.rxClosed = true
	b.notFull.Broadcast()
	b.mu.Unlock()
}

func (b *mutexBackend) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Length()
}

func (b *mutexBackend) cap() int { return b.capacity }
