// Package api
// Author: momentics@gmail.com
//
// Non-blocking bounded queue for cross-goroutine producer/consumer.

package api

// Ring is a non-blocking bounded queue contract.
// Channel backends layer blocking and disconnection on top of it.
type Ring[T any] interface {
	// Enqueue adds an item, returns false if full.
	Enqueue(item T) bool
	// Dequeue removes oldest item, returns false if empty.
	Dequeue() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}
