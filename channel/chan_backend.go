// File: channel/chan_backend.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package channel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mpsc/api"
)

// chanBackend wraps a Go buffered channel. The data channel is closed when
// the last sender handle goes away; rxDone is closed when the receiver does.
type chanBackend struct {
	ch      chan api.Command
	rxDone  chan struct{}
	rxOnce  sync.Once
	senders atomic.Int64
}

func newChanBackend(capacity int) backend {
	b := &chanBackend{
		ch:     make(chan api.Command, capacity),
		rxDone: make(chan struct{}),
	}
	b.senders.Store(1)
	return b
}

func (b *chanBackend) send(cmd api.Command) error {
	// prefer reporting disconnection over enqueueing into a dead channel
	select {
	case <-b.rxDone:
		return api.ErrDisconnected
	default:
	}
	select {
	case b.ch <- cmd:
		return nil
	case <-b.rxDone:
		return api.ErrDisconnected
	}
}

func (b *chanBackend) recv() (api.Command, error) {
	cmd, ok := <-b.ch
	if !ok {
		return api.Command{}, api.ErrDisconnected
	}
	return cmd, nil
}

func (b *chanBackend) recvTimeout(d time.Duration) (api.Command, error) {
	select {
	case cmd, ok := <-b.ch:
		if !ok {
			return api.Command{}, api.ErrDisconnected
		}
		return cmd, nil
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case cmd, ok := <-b.ch:
		if !ok {
			return api.Command{}, api.ErrDisconnected
		}
		return cmd, nil
	case <-timer.C:
		return api.Command{}, api.ErrTimeout
	}
}

func (b *chanBackend) addSender() { b.senders.Add(1) }

func (b *chanBackend) dropSender() {
	if b.senders.Add(-1) == 0 {
		close(b.ch)
	}
}

func (b *chanBackend) closeReceiver() {
	b.rxOnce.Do(func() { close(b.rxDone) })
}

func (b *chanBackend) len() int { return len(b.ch) }

func (b *chanBackend) cap() int { return cap(b.ch) }
