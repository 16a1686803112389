// File: harness/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RunConfig is immutable per run: the harness copies it on construction.

package harness

import (
	"errors"
	"time"

	"github.com/momentics/hioload-mpsc/api"
	"github.com/momentics/hioload-mpsc/channel"
)

// SchedulerKind selects how producers and the consumer are executed.
type SchedulerKind string

const (
	// SchedulerThread runs every unit on its own locked OS thread.
	SchedulerThread SchedulerKind = "thread"
	// SchedulerTask runs producers as tasks on a worker pool.
	SchedulerTask SchedulerKind = "task"
)

// Mode selects what a latency sample measures.
type Mode string

const (
	// ModeEndToEnd measures capture-to-consume latency in the consumer.
	ModeEndToEnd Mode = "e2e"
	// ModeSend measures time spent inside Send in each producer.
	ModeSend Mode = "send"
)

// Termination selects how the consumer learns the stream has ended.
type Termination string

const (
	// TerminationSentinel sends an in-band Quit command.
	TerminationSentinel Termination = "sentinel"
	// TerminationSignal closes an out-of-band quit signal which the consumer
	// checks whenever a timed receive comes back empty.
	TerminationSignal Termination = "signal"
)

// DefaultPercentiles are reported when a config does not list any.
var DefaultPercentiles = []float64{50, 90, 99}

// RunConfig holds the parameters of a single run.
type RunConfig struct {
	Capacity            int             `yaml:"capacity" json:"capacity"`
	Producers           int             `yaml:"producers" json:"producers"`
	MessagesPerProducer int             `yaml:"messages_per_producer" json:"messages_per_producer"`
	Backend             channel.Backend `yaml:"backend" json:"backend"`
	Scheduler           SchedulerKind   `yaml:"scheduler" json:"scheduler"`
	Workers             int             `yaml:"workers" json:"workers,omitempty"` // task pool size, 0 = GOMAXPROCS
	Mode                Mode            `yaml:"mode" json:"mode"`
	Termination         Termination     `yaml:"termination" json:"termination"`
	PollInterval        time.Duration   `yaml:"poll_interval" json:"poll_interval,omitempty"`
	PinThreads          bool            `yaml:"pin_threads" json:"pin_threads,omitempty"`
	ProgressInterval    time.Duration   `yaml:"progress_interval" json:"progress_interval,omitempty"`
	Percentiles         []float64       `yaml:"percentiles" json:"percentiles,omitempty"`
}

// DefaultConfig returns the large benchmark shape: 100 producers pushing
// 100k messages each through a 1000-slot channel.
func DefaultConfig() RunConfig {
	return RunConfig{
		Capacity:            1000,
		Producers:           100,
		MessagesPerProducer: 100_000,
		Backend:             channel.BackendChan,
		Scheduler:           SchedulerThread,
		Mode:                ModeEndToEnd,
		Termination:         TerminationSentinel,
		PollInterval:        100 * time.Millisecond,
		Percentiles:         append([]float64(nil), DefaultPercentiles...),
	}
}

// TotalMessages returns P×K.
func (c RunConfig) TotalMessages() int64 {
	return int64(c.Producers) * int64(c.MessagesPerProducer)
}

// Validate reports every invalid field. The result wraps api.ErrInvalidArgument.
func (c RunConfig) Validate() error {
	var errs []error
	bad := func(field string, value any, msg string) {
		errs = append(errs, api.NewError(api.ErrCodeInvalidArgument, msg).
			WithContext("field", field).
			WithContext("value", value).
			WithCause(api.ErrInvalidArgument))
	}

	if c.Capacity <= 0 {
		bad("capacity", c.Capacity, "capacity must be positive")
	}
	if c.Producers < 0 {
		bad("producers", c.Producers, "producers must not be negative")
	}
	if c.MessagesPerProducer < 0 {
		bad("messages_per_producer", c.MessagesPerProducer, "messages_per_producer must not be negative")
	}
	if _, err := channel.ParseBackend(string(c.Backend)); err != nil {
		bad("backend", c.Backend, "unknown backend")
	}
	switch c.Scheduler {
	case SchedulerThread, SchedulerTask:
	default:
		bad("scheduler", c.Scheduler, "scheduler must be thread or task")
	}
	if c.Workers < 0 {
		bad("workers", c.Workers, "workers must not be negative")
	}
	switch c.Mode {
	case ModeEndToEnd, ModeSend:
	default:
		bad("mode", c.Mode, "mode must be e2e or send")
	}
	switch c.Termination {
	case TerminationSentinel:
	case TerminationSignal:
		if c.PollInterval <= 0 {
			bad("poll_interval", c.PollInterval, "signal termination needs a positive poll interval")
		}
	default:
		bad("termination", c.Termination, "termination must be sentinel or signal")
	}
	if c.ProgressInterval < 0 {
		bad("progress_interval", c.ProgressInterval, "progress interval must not be negative")
	}
	for _, p := range c.Percentiles {
		if p < 0 || p > 100 {
			bad("percentiles", p, "percentile must be within [0, 100]")
		}
	}
	return errors.Join(errs...)
}
