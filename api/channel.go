// File: api/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPSC channel contract shared by every backend.

package api

import "time"

// Sender is one send handle of a bounded channel.
// A handle belongs to a single goroutine; Clone hands out further handles
// for other goroutines. The channel reports Disconnected to the receiver only
// after every handle has been closed.
type Sender interface {
	// Send enqueues cmd, blocking while the buffer is full.
	// Returns ErrDisconnected once the receiver is gone and ErrClosed if this
	// handle was already closed.
	Send(cmd Command) error

	// Clone returns a new independent handle on the same channel.
	// Cloning a closed handle panics.
	Clone() Sender

	// Close releases this handle. Repeated calls are no-ops.
	Close() error
}

// Receiver is the single receive handle of a bounded channel.
type Receiver interface {
	// Recv returns the oldest buffered command, blocking while empty.
	// Returns ErrDisconnected once the buffer is empty and no sender remains.
	Recv() (Command, error)

	// RecvTimeout behaves like Recv but gives up after d with ErrTimeout.
	RecvTimeout(d time.Duration) (Command, error)

	// Len returns the number of buffered commands.
	Len() int

	// Cap returns the channel capacity.
	Cap() int

	// Close detaches the receiver; blocked and future sends fail with
	// ErrDisconnected. Repeated calls are no-ops.
	Close() error
}
