// File: harness/recorder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Append-only latency store. It has exactly one writer while open, so it
// carries no lock; ownership moves to readers through the writer's
// completion signal after Freeze.

package harness

import "time"

// LatencyLog records latencies in arrival order.
type LatencyLog struct {
	samples []time.Duration
	frozen  bool
}

// maxPreallocSamples bounds the up-front allocation; larger logs grow by
// append.
const maxPreallocSamples = 1 << 20

// NewLatencyLog preallocates room for expected samples, up to
// maxPreallocSamples.
func NewLatencyLog(expected int) *LatencyLog {
	expected = max(0, min(expected, maxPreallocSamples))
	return &LatencyLog{samples: make([]time.Duration, 0, expected)}
}

// Append records one latency. Negative values are clamped to zero.
// Appending to a frozen log panics.
func (l *LatencyLog) Append(d time.Duration) {
	if l.frozen {
		panic("harness: append to frozen latency log")
	}
	if d < 0 {
		d = 0
	}
	l.samples = append(l.samples, d)
}

// Len returns the number of recorded samples.
func (l *LatencyLog) Len() int { return len(l.samples) }

// Freeze ends the writable phase. It is idempotent.
func (l *LatencyLog) Freeze() { l.frozen = true }

// Frozen reports whether Freeze was called.
func (l *LatencyLog) Frozen() bool { return l.frozen }

// Samples returns the recorded values. Callers must treat the slice as
// read-only.
func (l *LatencyLog) Samples() []time.Duration { return l.samples }

// mergeLogs concatenates frozen logs into a new frozen log.
func mergeLogs(logs []*LatencyLog) *LatencyLog {
	total := 0
	for _, l := range logs {
		total += l.Len()
	}
	out := NewLatencyLog(total)
	for _, l := range logs {
		out.samples = append(out.samples, l.samples...)
	}
	out.Freeze()
	return out
}
