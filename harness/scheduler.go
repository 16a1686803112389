// File: harness/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Execution models for producer units. One model is used for every unit of
// a run.

package harness

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mpsc/internal/concurrency"
)

type scheduler interface {
	// spawn starts unit; id doubles as the CPU hint when pinning.
	spawn(id int, unit func()) error
	// dedicated starts a long-lived unit (the consumer) outside any pool.
	dedicated(id int, unit func())
	close()
}

func newScheduler(cfg RunConfig, log zerolog.Logger) scheduler {
	if cfg.Scheduler == SchedulerTask {
		return newTaskScheduler(cfg.Workers, log)
	}
	return &threadScheduler{pin: cfg.PinThreads, log: log}
}

// threadScheduler gives each unit its own OS thread.
type threadScheduler struct {
	pin bool
	log zerolog.Logger
}

func (s *threadScheduler) spawn(id int, unit func()) error {
	go s.run(id, unit)
	return nil
}

func (s *threadScheduler) dedicated(id int, unit func()) {
	go s.run(id, unit)
}

func (s *threadScheduler) run(id int, unit func()) {
	if s.pin {
		// pinned threads stay locked and are retired with the goroutine
		if err := concurrency.PinCurrentThread(id); err != nil {
			s.log.Debug().Err(err).Int("unit", id).Msg("thread pinning unavailable")
		}
	} else {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	unit()
}

func (s *threadScheduler) close() {}

// taskScheduler multiplexes units over a fixed worker pool.
type taskScheduler struct {
	exec *concurrency.Executor
}

func newTaskScheduler(workers int, log zerolog.Logger) *taskScheduler {
	exec := concurrency.NewExecutor(workers, concurrency.WithPanicHandler(func(r any) {
		log.Error().Str("panic", fmt.Sprint(r)).Msg("task panicked")
	}))
	return &taskScheduler{exec: exec}
}

func (s *taskScheduler) spawn(_ int, unit func()) error {
	return s.exec.Submit(unit)
}

// dedicated keeps the consumer off the pool: with every worker blocked in a
// full-channel send, a pooled consumer could never be scheduled.
func (s *taskScheduler) dedicated(_ int, unit func()) {
	go unit()
}

func (s *taskScheduler) close() { s.exec.Close() }
