// File: harness/report.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Report is the outcome of a successful run. Stats is nil when the run
// recorded no samples.
type Report struct {
	RunID      uuid.UUID     `json:"run_id"`
	Config     RunConfig     `json:"config"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Received   int64         `json:"received"`
	Throughput float64       `json:"throughput_msgs_per_sec"`
	Stats      *Statistics   `json:"stats"`
}

// Empty reports whether no latency was recorded.
func (r *Report) Empty() bool { return r.Stats == nil }

// WriteText renders the human-readable summary, one value per line, in
// nanoseconds.
func (r *Report) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("run %s backend=%s scheduler=%s mode=%s termination=%s C=%d P=%d K=%d\n",
		r.RunID, r.Config.Backend, r.Config.Scheduler, r.Config.Mode, r.Config.Termination,
		r.Config.Capacity, r.Config.Producers, r.Config.MessagesPerProducer)
	if r.Empty() {
		ew.printf("count: 0\nno samples\n")
		return ew.err
	}
	ew.printf("count: %d\n", r.Stats.Count)
	ew.printf("mean: %d ns\n", r.Stats.Mean.Nanoseconds())
	ew.printf("min: %d ns\n", r.Stats.Min.Nanoseconds())
	ew.printf("max: %d ns\n", r.Stats.Max.Nanoseconds())
	for _, p := range r.Stats.Percentiles {
		ew.printf("p%s: %d ns\n", strconv.FormatFloat(p.Rank, 'f', -1, 64), p.Value.Nanoseconds())
	}
	ew.printf("elapsed: %s\n", r.Elapsed)
	ew.printf("throughput: %.0f msg/s\n", r.Throughput)
	return ew.err
}

// WriteJSON renders the report as a single JSON object.
func (r *Report) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
