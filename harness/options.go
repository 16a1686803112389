// File: harness/options.go
// Package harness defines functional options for the Harness.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package harness

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mpsc/api"
	"github.com/momentics/hioload-mpsc/control"
)

// Option customizes harness initialization.
type Option func(*Harness)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Harness) {
		h.log = log
	}
}

// WithMetrics publishes finished runs into mr.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(h *Harness) {
		h.metrics = mr
	}
}

// WithDebugVars registers run variables into dp instead of a private registry.
func WithDebugVars(dp *control.DebugVars) Option {
	return func(h *Harness) {
		h.vars = dp
	}
}

// WithObserver calls fn from the consumer for every data command, after its
// latency was recorded. fn runs on the consumer's hot path.
func WithObserver(fn func(cmd api.Command, latency time.Duration)) Option {
	return func(h *Harness) {
		h.observer = fn
	}
}

// WithBeforeSend calls fn in the producer before each data command is
// stamped and sent.
func WithBeforeSend(fn func(producer int, seq uint64)) Option {
	return func(h *Harness) {
		h.beforeSend = fn
	}
}
