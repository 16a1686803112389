// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives backing hioload-mpsc: a bounded lock-free MPMC
// queue, a worker-pool executor for the task scheduling model, adaptive
// backoff for spinning waiters, and OS thread pinning for the thread model.
package concurrency
