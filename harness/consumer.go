// File: harness/consumer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Consumer loop: the single reader of the channel and the only writer of the
// latency log.

package harness

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mpsc/api"
)

// ConsumerState is the consumer's lifecycle state.
type ConsumerState int32

const (
	ConsumerRunning ConsumerState = iota
	ConsumerTerminated
)

func (s ConsumerState) String() string {
	if s == ConsumerTerminated {
		return "terminated"
	}
	return "running"
}

// ConsumerResult is handed to the terminator when the loop exits. Log is
// frozen and owned by the receiver of the result from then on.
type ConsumerResult struct {
	Log       *LatencyLog
	Processed int64
	Err       error
}

// Consumer drains a Receiver until the stream ends.
type Consumer struct {
	rx           api.Receiver
	log          *LatencyLog
	termination  Termination
	pollInterval time.Duration
	quit         <-chan struct{}
	observe      func(api.Command, time.Duration)
	logger       zerolog.Logger

	state     atomic.Int32
	processed atomic.Int64
}

// NewConsumer builds a sentinel-terminated consumer writing into log.
func NewConsumer(rx api.Receiver, log *LatencyLog) *Consumer {
	return &Consumer{
		rx:          rx,
		log:         log,
		termination: TerminationSentinel,
		logger:      zerolog.Nop(),
	}
}

// WithQuitSignal switches the consumer to polling: it receives with the
// given timeout and, whenever nothing arrived, checks quit. Returns c.
func (c *Consumer) WithQuitSignal(quit <-chan struct{}, pollInterval time.Duration) *Consumer {
	c.termination = TerminationSignal
	c.quit = quit
	c.pollInterval = pollInterval
	return c
}

// State returns the current lifecycle state.
func (c *Consumer) State() ConsumerState { return ConsumerState(c.state.Load()) }

// Processed returns the number of data commands handled so far.
func (c *Consumer) Processed() int64 { return c.processed.Load() }

// Run executes the loop to completion. The receiver is closed on return so
// producers still blocked in Send fail with api.ErrDisconnected instead of
// hanging.
func (c *Consumer) Run() ConsumerResult {
	defer func() { _ = c.rx.Close() }()

	var err error
	if c.termination == TerminationSignal {
		err = c.runPolling()
	} else {
		err = c.runSentinel()
	}

	c.log.Freeze()
	c.state.Store(int32(ConsumerTerminated))
	if err != nil {
		c.logger.Error().Err(err).Int64("processed", c.Processed()).Msg("consumer aborted")
	} else {
		c.logger.Debug().Int64("processed", c.Processed()).Msg("consumer terminated")
	}
	return ConsumerResult{Log: c.log, Processed: c.Processed(), Err: err}
}

func (c *Consumer) runSentinel() error {
	for {
		cmd, err := c.rx.Recv()
		if err != nil {
			return c.recvFailure(err)
		}
		done, err := c.handle(cmd)
		if done || err != nil {
			return err
		}
	}
}

func (c *Consumer) runPolling() error {
	for {
		cmd, err := c.rx.RecvTimeout(c.pollInterval)
		switch {
		case err == nil:
			done, err := c.handle(cmd)
			if done || err != nil {
				return err
			}
		case errors.Is(err, api.ErrTimeout):
			if c.quitRaised() {
				return c.drain()
			}
		case errors.Is(err, api.ErrDisconnected) && c.quitRaised():
			// empty with no senders after quit: nothing left to read
			return nil
		default:
			return c.recvFailure(err)
		}
	}
}

// drain consumes what was enqueued between the last timeout and the quit
// check. Every producer finished before quit was raised, so an empty
// receive now is final.
func (c *Consumer) drain() error {
	for {
		cmd, err := c.rx.RecvTimeout(0)
		switch {
		case err == nil:
			if _, err := c.handle(cmd); err != nil {
				return err
			}
		case errors.Is(err, api.ErrTimeout), errors.Is(err, api.ErrDisconnected):
			return nil
		default:
			return c.recvFailure(err)
		}
	}
}

func (c *Consumer) quitRaised() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// handle applies one command. done is true on Quit.
func (c *Consumer) handle(cmd api.Command) (done bool, err error) {
	switch cmd.Kind {
	case api.KindData:
		latency := time.Since(cmd.CapturedAt)
		if latency < 0 {
			latency = 0
		}
		c.log.Append(latency)
		c.processed.Add(1)
		if c.observe != nil {
			c.observe(cmd, latency)
		}
		return false, nil
	case api.KindQuit:
		return true, nil
	default:
		return true, api.NewError(api.ErrCodeProtocol, "unknown command kind").
			At("consumer", cmd.Kind.String()).
			WithContext("kind", uint8(cmd.Kind))
	}
}

func (c *Consumer) recvFailure(err error) error {
	code := api.ErrCodeInternal
	msg := "receive failed"
	if errors.Is(err, api.ErrDisconnected) {
		code = api.ErrCodeDisconnected
		msg = "channel disconnected before quit"
	}
	// the consumer was waiting for Data or the closing Quit
	return api.NewError(code, msg).
		At("consumer", api.KindQuit.String()).
		WithContext("processed", c.Processed()).
		WithCause(err)
}
