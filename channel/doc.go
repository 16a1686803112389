// Package channel
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded multi-producer, single-consumer channels behind the api.Sender and
// api.Receiver contracts. Three backends share identical send, receive and
// disconnection semantics and are chosen by name at construction time:
//
//   - "chan": a Go buffered channel with a receiver-gone signal
//   - "mutex": a mutex and two condition variables around a ring queue
//   - "lockfree": a Vyukov MPMC queue with adaptive spin/sleep waiting
//
// Every sender handle is meant for a single goroutine; Clone hands out more.
package channel
