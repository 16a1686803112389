// File: harness/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Harness wires channel, consumer, producer pool, barrier and terminator for
// one run and reduces the result.

package harness

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mpsc/api"
	"github.com/momentics/hioload-mpsc/channel"
	"github.com/momentics/hioload-mpsc/control"
)

// Harness runs benchmark passes for one RunConfig.
type Harness struct {
	cfg        RunConfig
	log        zerolog.Logger
	metrics    *control.MetricsRegistry
	vars       *control.DebugVars
	observer   func(api.Command, time.Duration)
	beforeSend func(int, uint64)
}

// New validates cfg and applies options.
func New(cfg RunConfig, opts ...Option) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Percentiles = append([]float64(nil), cfg.Percentiles...)
	h := &Harness{
		cfg: cfg,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.vars == nil {
		h.vars = control.NewDebugVars()
	}
	control.RegisterPlatformVars(h.vars)
	return h, nil
}

// Config returns a copy of the run configuration.
func (h *Harness) Config() RunConfig {
	cfg := h.cfg
	cfg.Percentiles = append([]float64(nil), h.cfg.Percentiles...)
	return cfg
}

// Run executes one pass to completion. ctx only bounds progress reporting;
// the pass itself is not cancellable. A fatal producer, terminator or
// consumer error aborts the pass and no report is produced.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	cfg := h.cfg
	runID := uuid.New()
	log := h.log.With().
		Str("run_id", runID.String()).
		Str("backend", string(cfg.Backend)).
		Str("scheduler", string(cfg.Scheduler)).
		Logger()

	tx, rx, err := channel.New(cfg.Backend, cfg.Capacity)
	if err != nil {
		return nil, err
	}

	sched := newScheduler(cfg, log)
	barrier := NewBarrier(cfg.Producers)
	quit := make(chan struct{})

	consumer := NewConsumer(rx, NewLatencyLog(int(min(cfg.TotalMessages(), maxPreallocSamples))))
	consumer.observe = h.observer
	consumer.logger = log
	if cfg.Termination == TerminationSignal {
		consumer.WithQuitSignal(quit, cfg.PollInterval)
	}

	dropVars := h.vars.RegisterGroup(varGroup(runID), map[string]func() any{
		"channel.depth":       func() any { return rx.Len() },
		"consumer.received":   func() any { return consumer.Processed() },
		"producers.remaining": func() any { return barrier.Remaining() },
	})
	defer dropVars()

	log.Info().
		Int("capacity", cfg.Capacity).
		Int("producers", cfg.Producers).
		Int("messages_per_producer", cfg.MessagesPerProducer).
		Str("mode", string(cfg.Mode)).
		Str("termination", string(cfg.Termination)).
		Msg("run starting")

	start := time.Now()
	results := make(chan ConsumerResult, 1)
	sched.dedicated(cfg.Producers, func() { results <- consumer.Run() })

	pool := newProducerPool(cfg, sched, barrier, h.beforeSend)
	// scheduling failures are also delivered through the barrier
	_ = pool.Start(tx)
	stopProgress := startProgress(ctx, log, h.vars, cfg.ProgressInterval)

	prodErr := barrier.WaitForAllProducers()
	termErr := h.terminate(tx, quit, prodErr)
	res := <-results
	elapsed := time.Since(start)
	stopProgress()
	sched.close()

	if err := firstFatal(prodErr, res.Err, termErr); err != nil {
		log.Error().Err(err).Msg("run aborted")
		return nil, err
	}
	if want := cfg.TotalMessages(); res.Processed != want {
		err := api.NewError(api.ErrCodeProtocol, "consumer terminated early").
			At("consumer", api.KindQuit.String()).
			WithContext("processed", res.Processed).
			WithContext("expected", want)
		log.Error().Err(err).Msg("run aborted")
		return nil, err
	}

	samples := res.Log
	if cfg.Mode == ModeSend {
		samples = pool.SendLatencies()
	}

	report := &Report{
		RunID:    runID,
		Config:   h.Config(),
		Elapsed:  elapsed,
		Received: res.Processed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		report.Throughput = float64(res.Processed) / secs
	}
	stats, err := Summarize(samples.Samples(), cfg.Percentiles...)
	switch {
	case err == nil:
		report.Stats = &stats
	case errors.Is(err, api.ErrEmptySampleSet):
		log.Warn().Msg("run recorded no samples")
	default:
		return nil, err
	}

	if h.metrics != nil {
		h.metrics.ObserveRun(control.RunSample{
			Backend:   string(cfg.Backend),
			Mode:      string(cfg.Mode),
			Sent:      cfg.TotalMessages(),
			Received:  res.Processed,
			Duration:  elapsed,
			Latencies: samples.Samples(),
		})
	}

	ev := log.Info().Int64("received", res.Processed).Dur("elapsed", elapsed)
	if report.Stats != nil {
		ev = ev.Int64("mean_ns", report.Stats.Mean.Nanoseconds())
	}
	ev.Msg("run finished")
	return report, nil
}

// terminate ends the stream once the barrier has been released. On producer
// failure no quit is issued: closing the root sender is enough for the
// consumer to reach the disconnected path.
func (h *Harness) terminate(root api.Sender, quit chan struct{}, prodErr error) error {
	defer func() { _ = root.Close() }()
	if prodErr != nil {
		return nil
	}
	if h.cfg.Termination == TerminationSignal {
		close(quit)
		return nil
	}
	if err := root.Send(api.Quit()); err != nil {
		return api.NewError(api.ErrCodeDisconnected, "quit not delivered").
			At("terminator", api.KindQuit.String()).
			WithCause(err)
	}
	return nil
}

// varGroup namespaces a run's variables inside a possibly shared registry.
func varGroup(id uuid.UUID) string { return "run." + id.String() }

// firstFatal orders errors by causality: a producer failure explains the
// consumer's disconnect, and a consumer failure explains an undeliverable quit.
func firstFatal(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
