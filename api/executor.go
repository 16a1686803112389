// Package api
// Author: momentics
//
// Executor contract for the cooperative (task) scheduling model.

package api

// Executor runs submitted units on a fixed pool of worker goroutines.
type Executor interface {
	// Submit schedules task for execution, blocking while the pool's queues
	// are saturated.
	Submit(task func()) error

	// NumWorkers returns current number of active worker routines.
	NumWorkers() int

	// Close stops the workers after queued tasks have drained.
	Close()
}
