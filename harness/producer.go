// File: harness/producer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-mpsc/api"
)

// ProducerPool launches P units that each send K data commands.
type ProducerPool struct {
	producers  int
	messages   int
	sched      scheduler
	barrier    *Barrier
	beforeSend func(producer int, seq uint64)
	// sendLogs is non-nil in send mode: one single-writer log per producer.
	sendLogs []*LatencyLog
}

func newProducerPool(cfg RunConfig, sched scheduler, barrier *Barrier, beforeSend func(int, uint64)) *ProducerPool {
	p := &ProducerPool{
		producers:  cfg.Producers,
		messages:   cfg.MessagesPerProducer,
		sched:      sched,
		barrier:    barrier,
		beforeSend: beforeSend,
	}
	if cfg.Mode == ModeSend {
		p.sendLogs = make([]*LatencyLog, cfg.Producers)
		for i := range p.sendLogs {
			p.sendLogs[i] = NewLatencyLog(cfg.MessagesPerProducer)
		}
	}
	return p
}

// Start clones one handle per producer from root and hands the units to the
// scheduler. Handles are cloned here, before any unit runs, so the channel
// cannot observe zero senders while units are still pending. A scheduling
// failure is reported to the barrier for every unit not started.
func (p *ProducerPool) Start(root api.Sender) error {
	for i := 0; i < p.producers; i++ {
		id, tx := i, root.Clone()
		if err := p.sched.spawn(id, func() { p.unit(id, tx) }); err != nil {
			_ = tx.Close()
			err = api.NewError(api.ErrCodeInternal, "cannot schedule producer").
				At("producer", api.KindData.String()).
				WithContext("producer", id).
				WithCause(err)
			for j := i; j < p.producers; j++ {
				p.barrier.Done(err)
			}
			return err
		}
	}
	return nil
}

// SendLatencies returns the merged per-producer send logs. Only valid after
// the barrier has been released.
func (p *ProducerPool) SendLatencies() *LatencyLog {
	if p.sendLogs == nil {
		return nil
	}
	return mergeLogs(p.sendLogs)
}

func (p *ProducerPool) unit(id int, tx api.Sender) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = api.NewError(api.ErrCodeInternal, fmt.Sprintf("producer panicked: %v", r)).
				At("producer", api.KindData.String()).
				WithContext("producer", id)
		}
		_ = tx.Close()
		p.barrier.Done(err)
	}()
	err = p.produce(id, tx)
}

func (p *ProducerPool) produce(id int, tx api.Sender) error {
	var sendLog *LatencyLog
	if p.sendLogs != nil {
		sendLog = p.sendLogs[id]
		defer sendLog.Freeze()
	}
	for seq := uint64(0); seq < uint64(p.messages); seq++ {
		if p.beforeSend != nil {
			p.beforeSend(id, seq)
		}
		capturedAt := time.Now()
		if err := tx.Send(api.Data(id, seq, capturedAt)); err != nil {
			code := api.ErrCodeInternal
			if errors.Is(err, api.ErrDisconnected) {
				code = api.ErrCodeDisconnected
			}
			return api.NewError(code, "send failed").
				At("producer", api.KindData.String()).
				WithContext("producer", id).
				WithContext("seq", seq).
				WithCause(err)
		}
		if sendLog != nil {
			sendLog.Append(time.Since(capturedAt))
		}
	}
	return nil
}
