// File: channel/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backend registry and the handle types shared by all backends.

package channel

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mpsc/api"
)

// Backend names a channel implementation.
type Backend string

const (
	BackendChan     Backend = "chan"
	BackendMutex    Backend = "mutex"
	BackendLockFree Backend = "lockfree"
)

// backend is the buffer-and-wakeup core a handle pair drives.
// Sender accounting starts at one live sender.
type backend interface {
	send(cmd api.Command) error
	recv() (api.Command, error)
	recvTimeout(d time.Duration) (api.Command, error)
	addSender()
	dropSender()
	closeReceiver()
	len() int
	cap() int
}

var registry = map[Backend]func(capacity int) backend{
	BackendChan:     newChanBackend,
	BackendMutex:    newMutexBackend,
	BackendLockFree: newLockFreeBackend,
}

// Backends lists the registered backend names in sorted order.
func Backends() []Backend {
	out := make([]Backend, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	b := Backend(name)
	if _, ok := registry[b]; !ok {
		return "", api.NewError(api.ErrCodeInvalidArgument, "unknown channel backend").
			WithContext("backend", name).
			WithCause(api.ErrInvalidArgument)
	}
	return b, nil
}

// New creates a bounded channel with room for capacity commands and returns
// its first send handle and its only receive handle.
func New(b Backend, capacity int) (api.Sender, api.Receiver, error) {
	if capacity <= 0 {
		return nil, nil, api.NewError(api.ErrCodeInvalidArgument, "channel capacity must be positive").
			WithContext("capacity", capacity).
			WithCause(api.ErrInvalidArgument)
	}
	if _, err := ParseBackend(string(b)); err != nil {
		return nil, nil, err
	}
	core := registry[b](capacity)
	return &sender{core: core}, &receiver{core: core}, nil
}

type sender struct {
	core   backend
	closed atomic.Bool
}

func (s *sender) Send(cmd api.Command) error {
	if s.closed.Load() {
		return api.ErrClosed
	}
	return s.core.send(cmd)
}

func (s *sender) Clone() api.Sender {
	if s.closed.Load() {
		panic("channel: clone of closed sender")
	}
	s.core.addSender()
	return &sender{core: s.core}
}

func (s *sender) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.core.dropSender()
	}
	return nil
}

type receiver struct {
	core   backend
	closed atomic.Bool
}

func (r *receiver) Recv() (api.Command, error) {
	if r.closed.Load() {
		return api.Command{}, api.ErrClosed
	}
	return r.core.recv()
}

func (r *receiver) RecvTimeout(d time.Duration) (api.Command, error) {
	if r.closed.Load() {
		return api.Command{}, api.ErrClosed
	}
	return r.core.recvTimeout(d)
}

func (r *receiver) Len() int { return r.core.len() }

func (r *receiver) Cap() int { return r.core.cap() }

func (r *receiver) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.core.closeReceiver()
	}
	return nil
}
