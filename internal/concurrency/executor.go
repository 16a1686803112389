// File: internal/concurrency/executor.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks across worker goroutines, using lock-free local queues
// and a global queue fallback. Submit blocks instead of failing when every queue
// is saturated, so long-running units (benchmark producers) can be queued in bulk.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-mpsc/api"
)

var _ api.Executor = (*Executor)(nil)

// TaskFunc is a unit of work.
type TaskFunc func()

const localQueueSize = 1024

// Executor manages a pool of worker goroutines.
type Executor struct {
	globalQueue chan TaskFunc
	localQueues []*LockFreeQueue[TaskFunc]
	workers     []*worker
	closeCh     chan struct{}
	closed      atomic.Bool
	next        atomic.Uint64
	pending     atomic.Int64
	onPanic     func(any)
	wg          sync.WaitGroup
}

// ExecutorOption customizes executor construction.
type ExecutorOption func(*Executor)

// WithPanicHandler installs fn to observe panics recovered from tasks.
func WithPanicHandler(fn func(any)) ExecutorOption {
	return func(e *Executor) {
		e.onPanic = fn
	}
}

// NewExecutor creates a new Executor with the given number of workers.
// numWorkers <= 0 selects GOMAXPROCS.
func NewExecutor(numWorkers int, opts ...ExecutorOption) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	e := &Executor{
		globalQueue: make(chan TaskFunc, numWorkers*4),
		closeCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.localQueues = make([]*LockFreeQueue[TaskFunc], numWorkers)
	e.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		e.localQueues[i] = NewLockFreeQueue[TaskFunc](localQueueSize)
	}
	for i := 0; i < numWorkers; i++ {
		w := &worker{id: i, executor: e, localQueue: e.localQueues[i]}
		e.workers[i] = w
		e.wg.Add(1)
		go w.run()
	}
	return e
}

// Submit enqueues a task. Returns ErrExecutorClosed once Close was called.
func (e *Executor) Submit(fn func()) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	task := TaskFunc(fn)
	e.pending.Add(1)
	idx := int(e.next.Add(1) % uint64(len(e.localQueues)))
	if e.localQueues[idx].Enqueue(task) {
		return nil
	}
	select {
	case e.globalQueue <- task:
		return nil
	case <-e.closeCh:
		e.pending.Add(-1)
		return ErrExecutorClosed
	}
}

// Close stops accepting tasks, lets workers drain what is queued and waits
// for them to exit.
func (e *Executor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.closeCh)
		e.wg.Wait()
	}
}

// NumWorkers returns active worker count.
func (e *Executor) NumWorkers() int {
	return len(e.workers)
}

// Pending returns the number of submitted tasks that have not finished.
func (e *Executor) Pending() int64 {
	return e.pending.Load()
}

type worker struct {
	id         int
	executor   *Executor
	localQueue *LockFreeQueue[TaskFunc]
}

func (w *worker) run() {
	defer w.executor.wg.Done()
	var backoff Backoff
	for {
		if task, ok := w.localQueue.Dequeue(); ok {
			w.safeExecute(task)
			backoff.Reset()
			continue
		}
		select {
		case task := <-w.executor.globalQueue:
			w.safeExecute(task)
			backoff.Reset()
			continue
		default:
		}
		if w.executor.closed.Load() && w.executor.pending.Load() <= 0 {
			return
		}
		backoff.Wait()
	}
}

func (w *worker) safeExecute(task TaskFunc) {
	defer func() {
		w.executor.pending.Add(-1)
		if r := recover(); r != nil && w.executor.onPanic != nil {
			w.executor.onPanic(r)
		}
	}()
	task()
}
