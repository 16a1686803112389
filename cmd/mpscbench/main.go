// File: cmd/mpscbench/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// MPSC channel latency benchmark.
// Runs P producers against one consumer through a bounded channel and prints
// a single latency summary on stdout. Logs go to stderr.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mpsc/api"
	"github.com/momentics/hioload-mpsc/channel"
	"github.com/momentics/hioload-mpsc/control"
	"github.com/momentics/hioload-mpsc/harness"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitConfig      = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	configPath string
	format     string
	metrics    bool
	logLevel   string
	logJSON    bool

	capacity     int
	producers    int
	messages     int
	backend      string
	scheduler    string
	workers      int
	mode         string
	termination  string
	pollInterval time.Duration
	pin          bool
	progress     time.Duration
	percentiles  string
}

func newFlagSet(stderr io.Writer, f *cliFlags) *flag.FlagSet {
	def := harness.DefaultConfig()
	fs := flag.NewFlagSet("mpscbench", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configPath, "config", "", "YAML run configuration file")
	fs.StringVar(&f.format, "format", "text", "summary format: text or json")
	fs.BoolVar(&f.metrics, "metrics", false, "dump Prometheus metrics to stderr after the run")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&f.logJSON, "log-json", false, "emit JSON log lines instead of console output")

	fs.IntVar(&f.capacity, "capacity", def.Capacity, "channel capacity C")
	fs.IntVar(&f.producers, "producers", def.Producers, "producer count P")
	fs.IntVar(&f.messages, "messages", def.MessagesPerProducer, "messages per producer K")
	fs.StringVar(&f.backend, "backend", string(def.Backend), "channel backend: "+backendList())
	fs.StringVar(&f.scheduler, "scheduler", string(def.Scheduler), "execution model: thread or task")
	fs.IntVar(&f.workers, "workers", def.Workers, "task pool size (0 = GOMAXPROCS)")
	fs.StringVar(&f.mode, "mode", string(def.Mode), "measurement: e2e or send")
	fs.StringVar(&f.termination, "termination", string(def.Termination), "consumer termination: sentinel or signal")
	fs.DurationVar(&f.pollInterval, "poll-interval", def.PollInterval, "receive timeout in signal termination")
	fs.BoolVar(&f.pin, "pin", def.PinThreads, "pin thread-model units to CPUs")
	fs.DurationVar(&f.progress, "progress", def.ProgressInterval, "progress log interval (0 disables)")
	fs.StringVar(&f.percentiles, "percentiles", "", "comma separated percentiles, e.g. 50,99,99.9")
	return fs
}

func backendList() string {
	names := make([]string, 0, 3)
	for _, b := range channel.Backends() {
		names = append(names, string(b))
	}
	return strings.Join(names, "|")
}

// run is main without process exit, returning the exit status. A run cannot
// be cancelled midway, so when ctx ends first run gives up on it and reports
// the interruption; main exits right after. extra options are appended to
// the harness options.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, extra ...harness.Option) int {
	var f cliFlags
	fs := newFlagSet(stderr, &f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	logger, err := newLogger(stderr, f.logLevel, f.logJSON)
	if err != nil {
		fmt.Fprintf(stderr, "mpscbench: %v\n", err)
		return exitConfig
	}

	cfg, err := buildConfig(fs, &f)
	if err != nil {
		logFatal(logger, err, "invalid configuration")
		return exitConfig
	}
	if f.format != "text" && f.format != "json" {
		logger.Error().Str("format", f.format).Msg("format must be text or json")
		return exitConfig
	}

	var mr *control.MetricsRegistry
	if f.metrics {
		mr = control.NewMetricsRegistry()
	}
	opts := []harness.Option{harness.WithLogger(logger)}
	if mr != nil {
		opts = append(opts, harness.WithMetrics(mr))
	}
	opts = append(opts, extra...)
	h, err := harness.New(cfg, opts...)
	if err != nil {
		logFatal(logger, err, "invalid configuration")
		return exitConfig
	}

	type outcome struct {
		report *harness.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := h.Run(ctx)
		done <- outcome{report, err}
	}()

	var report *harness.Report
	select {
	case o := <-done:
		report, err = o.report, o.err
	case <-ctx.Done():
		logger.Error().Err(context.Cause(ctx)).Msg("benchmark interrupted")
		return exitInterrupted
	}
	if err != nil {
		logFatal(logger, err, "benchmark failed")
		return exitFatal
	}

	if f.format == "json" {
		err = report.WriteJSON(stdout)
	} else {
		err = report.WriteText(stdout)
	}
	if err != nil {
		logger.Error().Err(err).Msg("cannot write summary")
		return exitFatal
	}
	if mr != nil {
		if err := mr.WriteText(stderr); err != nil {
			logger.Warn().Err(err).Msg("cannot write metrics")
		}
	}
	return exitOK
}

// buildConfig layers defaults, the optional YAML file and explicitly set
// flags, in that order.
func buildConfig(fs *flag.FlagSet, f *cliFlags) (harness.RunConfig, error) {
	cfg := harness.DefaultConfig()
	if f.configPath != "" {
		if err := control.LoadConfig(f.configPath, &cfg); err != nil {
			return cfg, api.NewError(api.ErrCodeInvalidArgument, "cannot load config file").
				WithContext("path", f.configPath).
				WithCause(errors.Join(api.ErrInvalidArgument, err))
		}
	}

	var perr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "capacity":
			cfg.Capacity = f.capacity
		case "producers":
			cfg.Producers = f.producers
		case "messages":
			cfg.MessagesPerProducer = f.messages
		case "backend":
			cfg.Backend = channel.Backend(f.backend)
		case "scheduler":
			cfg.Scheduler = harness.SchedulerKind(f.scheduler)
		case "workers":
			cfg.Workers = f.workers
		case "mode":
			cfg.Mode = harness.Mode(f.mode)
		case "termination":
			cfg.Termination = harness.Termination(f.termination)
		case "poll-interval":
			cfg.PollInterval = f.pollInterval
		case "pin":
			cfg.PinThreads = f.pin
		case "progress":
			cfg.ProgressInterval = f.progress
		case "percentiles":
			cfg.Percentiles, perr = parsePercentiles(f.percentiles)
		}
	})
	if perr != nil {
		return cfg, perr
	}
	return cfg, cfg.Validate()
}

func parsePercentiles(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, api.NewError(api.ErrCodeInvalidArgument, "bad percentile").
				WithContext("value", part).
				WithCause(api.ErrInvalidArgument)
		}
		out = append(out, p)
	}
	return out, nil
}

func newLogger(w io.Writer, level string, asJSON bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("bad log level %q: %w", level, err)
	}
	out := w
	if !asJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339Nano}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// logFatal logs err once, naming the failing component and command kind when
// the error carries them.
func logFatal(log zerolog.Logger, err error, msg string) {
	ev := log.Error().Err(err)
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		ev = ev.Str("code", apiErr.Code.String())
		if apiErr.Component != "" {
			ev = ev.Str("component", apiErr.Component)
		}
		if apiErr.Command != "" {
			ev = ev.Str("command", apiErr.Command)
		}
	}
	ev.Msg(msg)
}
